package store_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/store"
	"github.com/stretchr/testify/require"
)

func task(id string, status model.TaskStatus, deadline time.Time) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Status: status, AssigneeID: "u1", Deadline: deadline, UpdatedAt: t0}
}

func TestAuthReducer(t *testing.T) {
	s := store.Reduce(store.State{}, store.AuthPending{})
	require.True(t, s.Auth.Loading)

	s = store.Reduce(s, store.AuthFailed{Error: "Invalid credentials"})
	require.False(t, s.Auth.Loading)
	require.False(t, s.Auth.IsAuthenticated)
	require.Equal(t, "Invalid credentials", s.Auth.Error)

	s = store.Reduce(s, store.AuthSucceeded{User: model.User{ID: "u1"}})
	require.True(t, s.Auth.IsAuthenticated)
	require.Empty(t, s.Auth.Error)
	require.Equal(t, "u1", s.SelfID())
}

func TestLoggedOut_KeepsNotifications(t *testing.T) {
	s := loggedIn("u1")
	s = store.Reduce(s, store.TasksLoaded{Tasks: []model.Task{task("t1", model.TaskStatusNew, t0)}})
	s = store.Reduce(s, store.MessageReceived{Message: msg("m1", "u2", "u1", "hi", t0)})
	s = store.Reduce(s, store.Notify(model.NotificationInfo, "bye"))

	s = store.Reduce(s, store.LoggedOut{})

	require.False(t, s.Auth.IsAuthenticated)
	require.Nil(t, s.Auth.User)
	require.Empty(t, s.Tasks.Tasks)
	require.Empty(t, s.Chat.Conversations)
	require.Empty(t, s.Chat.Seen)
	require.Len(t, s.UI.Notifications, 1)
}

func TestTasksReducer_CRUD(t *testing.T) {
	s := store.Reduce(store.State{}, store.TasksPending{})
	require.True(t, s.Tasks.Loading)

	s = store.Reduce(s, store.TasksLoaded{Tasks: []model.Task{
		task("t1", model.TaskStatusNew, t0),
		task("t2", model.TaskStatusInProgress, t0),
	}})
	require.False(t, s.Tasks.Loading)
	require.Len(t, s.Tasks.Tasks, 2)

	s = store.Reduce(s, store.TaskCreated{Task: task("t3", model.TaskStatusNew, t0)})
	require.Len(t, s.Tasks.Tasks, 3)

	updated := task("t2", model.TaskStatusCompleted, t0)
	s = store.Reduce(s, store.CurrentTaskSet{Task: task("t2", model.TaskStatusInProgress, t0)})
	s = store.Reduce(s, store.TaskUpdated{Task: updated})
	require.Equal(t, model.TaskStatusCompleted, s.Tasks.Tasks[1].Status)
	require.Equal(t, model.TaskStatusCompleted, s.Tasks.Current.Status)

	s = store.Reduce(s, store.TaskDeleted{ID: "t2"})
	require.Len(t, s.Tasks.Tasks, 2)
	require.Nil(t, s.Tasks.Current)
}

func TestTasksReducer_NotFound(t *testing.T) {
	s := store.Reduce(store.State{}, store.TasksLoaded{Tasks: []model.Task{task("t1", model.TaskStatusNew, t0)}})
	s = store.Reduce(s, store.CurrentTaskSet{Task: task("t1", model.TaskStatusNew, t0)})

	s = store.Reduce(s, store.TaskNotFound{ID: "t1"})
	require.True(t, s.Tasks.NotFound)
	require.Nil(t, s.Tasks.Current)
	require.Empty(t, s.Tasks.Tasks)

	s = store.Reduce(s, store.CurrentTaskCleared{})
	require.False(t, s.Tasks.NotFound)
}

func TestTasksReducer_PushIgnoresStaleCopy(t *testing.T) {
	fresh := task("t1", model.TaskStatusInProgress, t0)
	fresh.UpdatedAt = t0.Add(time.Hour)
	s := store.Reduce(store.State{}, store.TasksLoaded{Tasks: []model.Task{fresh}})

	stale := task("t1", model.TaskStatusNew, t0)
	s = store.Reduce(s, store.TaskPushed{Task: stale})
	require.Equal(t, model.TaskStatusInProgress, s.Tasks.Tasks[0].Status)

	newer := task("t1", model.TaskStatusCompleted, t0)
	newer.UpdatedAt = t0.Add(2 * time.Hour)
	s = store.Reduce(s, store.TaskPushed{Task: newer})
	require.Equal(t, model.TaskStatusCompleted, s.Tasks.Tasks[0].Status)

	s = store.Reduce(s, store.TaskPushed{Task: task("t9", model.TaskStatusNew, t0)})
	require.Len(t, s.Tasks.Tasks, 2)
}

func TestTasksReducer_DoesNotMutatePrevious(t *testing.T) {
	before := store.Reduce(store.State{}, store.TasksLoaded{Tasks: []model.Task{task("t1", model.TaskStatusNew, t0)}})
	_ = store.Reduce(before, store.TaskUpdated{Task: task("t1", model.TaskStatusCompleted, t0)})
	require.Equal(t, model.TaskStatusNew, before.Tasks.Tasks[0].Status)
}

func TestUIReducer(t *testing.T) {
	n := store.Notify(model.NotificationError, "Failed to connect to chat server")
	require.NotEmpty(t, n.Notification.ID)
	require.Equal(t, store.DefaultNotificationTimeout, n.Notification.Timeout)

	s := store.Reduce(store.State{}, n)
	s = store.Reduce(s, store.Notify(model.NotificationInfo, "second"))
	require.Len(t, s.UI.Notifications, 2)

	s = store.Reduce(s, store.NotificationRemoved{ID: n.Notification.ID})
	require.Len(t, s.UI.Notifications, 1)
	require.Equal(t, "second", s.UI.Notifications[0].Message)

	s = store.Reduce(s, store.NotificationsCleared{})
	require.Empty(t, s.UI.Notifications)
}
