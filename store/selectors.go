package store

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-taskboard/model"
)

const upcomingWindow = 7 * 24 * time.Hour

func (t TasksState) ByStatus(status model.TaskStatus) []model.Task {
	return t.filter(func(task model.Task) bool { return task.Status == status })
}

func (t TasksState) AssignedTo(userID string) []model.Task {
	return t.filter(func(task model.Task) bool { return task.AssigneeID == userID })
}

// Upcoming returns open tasks due within the next seven days.
func (t TasksState) Upcoming(now time.Time) []model.Task {
	until := now.Add(upcomingWindow)
	return t.filter(func(task model.Task) bool {
		return task.Status != model.TaskStatusCompleted &&
			!task.Deadline.Before(now) && !task.Deadline.After(until)
	})
}

// Overdue returns open tasks whose deadline has passed.
func (t TasksState) Overdue(now time.Time) []model.Task {
	return t.filter(func(task model.Task) bool {
		return task.Status != model.TaskStatusCompleted && task.Deadline.Before(now)
	})
}

func (t TasksState) filter(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, task := range t.Tasks {
		if keep(task) {
			out = append(out, task)
		}
	}
	return out
}

// TotalUnread sums unread counts over every conversation.
func (c ChatState) TotalUnread() int {
	total := 0
	for _, conv := range c.Conversations {
		total += conv.UnreadCount
	}
	return total
}

// ConversationFor returns the conversation with participant, if any.
func (c ChatState) ConversationFor(participant string) (model.Conversation, bool) {
	if i := conversationIndex(c.Conversations, participant); i >= 0 {
		return c.Conversations[i], true
	}
	return model.Conversation{}, false
}

// IsPlaceholder reports whether conv was synthesized from a push event.
func IsPlaceholder(conv model.Conversation) bool {
	return strings.HasPrefix(conv.ID, PlaceholderPrefix)
}
