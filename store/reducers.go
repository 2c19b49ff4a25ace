package store

import (
	"slices"

	"github.com/jrsteele09/go-taskboard/model"
)

const (
	// PlaceholderPrefix marks conversations created from a push event before the
	// participant's details are known.
	PlaceholderPrefix = "temp-"
	// UnknownParticipant is the display name of a placeholder conversation.
	UnknownParticipant = "Unknown User"
)

// Reduce is the pure state transition function. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AuthPending, AuthSucceeded, AuthFailed:
		s.Auth = reduceAuth(s.Auth, a)
	case LoggedOut:
		return State{UI: s.UI}
	case TasksPending, TasksFailed, TasksLoaded, TaskLoaded, TaskNotFound, TaskCreated,
		TaskUpdated, TaskDeleted, TaskPushed, CurrentTaskSet, CurrentTaskCleared:
		s.Tasks = reduceTasks(s.Tasks, a)
	case ChatPending, ChatFailed, ConversationsLoaded, MessagesLoaded, MessageReceived,
		MessageSent, MessagesRead, ActiveConversationSet, ActiveConversationCleared:
		s.Chat = reduceChat(s.Chat, s.SelfID(), a)
	case NotificationAdded, NotificationRemoved, NotificationsCleared:
		s.UI = reduceUI(s.UI, a)
	}
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case AuthPending:
		s.Loading = true
		s.Error = ""
	case AuthSucceeded:
		u := a.User
		s = AuthState{User: &u, IsAuthenticated: true}
	case AuthFailed:
		s.Loading = false
		s.Error = a.Error
	}
	return s
}

func reduceTasks(s TasksState, a Action) TasksState {
	s = s.clone()
	switch a := a.(type) {
	case TasksPending:
		s.Loading = true
		s.Error = ""
	case TasksFailed:
		s.Loading = false
		s.Error = a.Error
	case TasksLoaded:
		s.Loading = false
		s.Tasks = slices.Clone(a.Tasks)
	case TaskLoaded:
		s.Loading = false
		s.NotFound = false
		t := a.Task
		s.Current = &t
		if i := taskIndex(s.Tasks, t.ID); i >= 0 {
			s.Tasks[i] = t
		}
	case TaskNotFound:
		s.Loading = false
		s.NotFound = true
		s.Error = "Task not found"
		s.Current = nil
		s.Tasks = slices.DeleteFunc(s.Tasks, func(t model.Task) bool { return t.ID == a.ID })
	case TaskCreated:
		s.Loading = false
		s.Tasks = upsertTask(s.Tasks, a.Task)
	case TaskUpdated:
		s.Loading = false
		if i := taskIndex(s.Tasks, a.Task.ID); i >= 0 {
			s.Tasks[i] = a.Task
		}
		if s.Current != nil && s.Current.ID == a.Task.ID {
			t := a.Task
			s.Current = &t
		}
	case TaskDeleted:
		s.Loading = false
		s.Tasks = slices.DeleteFunc(s.Tasks, func(t model.Task) bool { return t.ID == a.ID })
		if s.Current != nil && s.Current.ID == a.ID {
			s.Current = nil
		}
	case TaskPushed:
		if a.Task.ID == "" {
			return s
		}
		if i := taskIndex(s.Tasks, a.Task.ID); i >= 0 && s.Tasks[i].UpdatedAt.After(a.Task.UpdatedAt) {
			return s // cached copy is newer than the push
		}
		s.Tasks = upsertTask(s.Tasks, a.Task)
		if s.Current != nil && s.Current.ID == a.Task.ID {
			t := a.Task
			s.Current = &t
		}
	case CurrentTaskSet:
		t := a.Task
		s.Current = &t
		s.NotFound = false
	case CurrentTaskCleared:
		s.Current = nil
		s.NotFound = false
	}
	return s
}

func taskIndex(tasks []model.Task, id string) int {
	return slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
}

func upsertTask(tasks []model.Task, t model.Task) []model.Task {
	if i := taskIndex(tasks, t.ID); i >= 0 {
		tasks[i] = t
		return tasks
	}
	return append(tasks, t)
}

func reduceUI(s UIState, a Action) UIState {
	switch a := a.(type) {
	case NotificationAdded:
		s.Notifications = append(slices.Clone(s.Notifications), a.Notification)
	case NotificationRemoved:
		s.Notifications = slices.DeleteFunc(slices.Clone(s.Notifications), func(n model.Notification) bool {
			return n.ID == a.ID
		})
	case NotificationsCleared:
		s.Notifications = nil
	}
	return s
}
