package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-taskboard/model"
)

// Action is anything Reduce understands.
type Action interface {
	action()
}

// Auth
type (
	AuthPending   struct{}
	AuthSucceeded struct{ User model.User }
	AuthFailed    struct{ Error string }
	// LoggedOut resets the session-scoped slices (auth, tasks, chat).
	LoggedOut struct{}
)

// Tasks
type (
	TasksPending       struct{}
	TasksFailed        struct{ Error string }
	TasksLoaded        struct{ Tasks []model.Task }
	TaskLoaded         struct{ Task model.Task }
	TaskNotFound       struct{ ID string }
	TaskCreated        struct{ Task model.Task }
	TaskUpdated        struct{ Task model.Task }
	TaskDeleted        struct{ ID string }
	TaskPushed         struct{ Task model.Task } // from the realtime channel
	CurrentTaskSet     struct{ Task model.Task }
	CurrentTaskCleared struct{}
)

// Chat
type (
	ChatPending         struct{}
	ChatFailed          struct{ Error string }
	ConversationsLoaded struct{ Conversations []model.Conversation }
	MessagesLoaded      struct {
		ParticipantID string
		Messages      []model.Message
	}
	MessageReceived           struct{ Message model.Message } // push event
	MessageSent               struct{ Message model.Message } // REST acknowledgment
	MessagesRead              struct{ ParticipantID string }
	ActiveConversationSet     struct{ ParticipantID string }
	ActiveConversationCleared struct{}
)

// UI
type (
	NotificationAdded    struct{ Notification model.Notification }
	NotificationRemoved  struct{ ID string }
	NotificationsCleared struct{}
)

func (AuthPending) action()   {}
func (AuthSucceeded) action() {}
func (AuthFailed) action()    {}
func (LoggedOut) action()     {}

func (TasksPending) action()       {}
func (TasksFailed) action()        {}
func (TasksLoaded) action()        {}
func (TaskLoaded) action()         {}
func (TaskNotFound) action()       {}
func (TaskCreated) action()        {}
func (TaskUpdated) action()        {}
func (TaskDeleted) action()        {}
func (TaskPushed) action()         {}
func (CurrentTaskSet) action()     {}
func (CurrentTaskCleared) action() {}

func (ChatPending) action()               {}
func (ChatFailed) action()                {}
func (ConversationsLoaded) action()       {}
func (MessagesLoaded) action()            {}
func (MessageReceived) action()           {}
func (MessageSent) action()               {}
func (MessagesRead) action()              {}
func (ActiveConversationSet) action()     {}
func (ActiveConversationCleared) action() {}

func (NotificationAdded) action()    {}
func (NotificationRemoved) action()  {}
func (NotificationsCleared) action() {}

// DefaultNotificationTimeout matches the toast lifetime of the web client.
const DefaultNotificationTimeout = 5 * time.Second

// Notify builds a NotificationAdded with a fresh ID.
func Notify(typ model.NotificationType, message string) NotificationAdded {
	return NotificationAdded{Notification: model.Notification{
		ID:      uuid.NewString(),
		Message: message,
		Type:    typ,
		Timeout: DefaultNotificationTimeout,
	}}
}
