// Package store holds the client-side application state. State values are
// immutable snapshots; every change goes through Reduce via Store.Dispatch.
package store

import (
	"maps"
	"slices"

	"github.com/jrsteele09/go-taskboard/model"
)

type State struct {
	Auth  AuthState
	Tasks TasksState
	Chat  ChatState
	UI    UIState
}

type AuthState struct {
	User            *model.User
	IsAuthenticated bool
	Loading         bool
	Error           string
}

type TasksState struct {
	Tasks    []model.Task
	Current  *model.Task
	NotFound bool // last fetch-by-id returned 404
	Loading  bool
	Error    string
}

type ChatState struct {
	Conversations []model.Conversation // sorted by LastMessageTimestamp, newest first
	Active        string               // participant ID of the active conversation
	Messages      []model.Message      // messages of the active conversation
	Seen          map[string]struct{}  // IDs of every message merged so far
	Loading       bool
	Error         string
}

type UIState struct {
	Notifications []model.Notification
}

// SelfID is the session user's identifier, empty when unknown.
func (s State) SelfID() string {
	if s.Auth.User == nil {
		return ""
	}
	return s.Auth.User.ID
}

func (c ChatState) clone() ChatState {
	c.Conversations = slices.Clone(c.Conversations)
	c.Messages = slices.Clone(c.Messages)
	c.Seen = maps.Clone(c.Seen)
	if c.Seen == nil {
		c.Seen = make(map[string]struct{})
	}
	return c
}

func (c ChatState) seen(id string) bool {
	_, ok := c.Seen[id]
	return ok
}

func (t TasksState) clone() TasksState {
	t.Tasks = slices.Clone(t.Tasks)
	if t.Current != nil {
		cur := *t.Current
		t.Current = &cur
	}
	return t
}
