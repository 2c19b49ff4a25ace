package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
	"github.com/jrsteele09/go-taskboard/store"
)

func (a *App) handleEvent(f realtime.Frame) {
	switch f.Event {
	case realtime.EventMessage:
		m, err := realtime.DecodeMessage(f)
		if err != nil || !m.WellFormed() {
			log.Warn().Err(err).Str("event", f.Event).Msg("dropping malformed message event")
			return
		}
		a.receiveMessage(m)
	case realtime.EventTaskCreated, realtime.EventTaskUpdated:
		t, err := realtime.DecodeTask(f)
		if err != nil || t.ID == "" {
			log.Warn().Err(err).Str("event", f.Event).Msg("dropping malformed task event")
			return
		}
		a.Store.Dispatch(store.TaskPushed{Task: t})
		if f.Event == realtime.EventTaskCreated {
			a.Notify(model.NotificationInfo, fmt.Sprintf("New task assigned: %s", t.Title))
		} else {
			a.Notify(model.NotificationInfo, fmt.Sprintf("Task %q has been updated", t.Title))
		}
	case realtime.EventError:
		var p realtime.ErrorPayload
		if err := realtime.DecodeData(f, &p); err != nil || p.Message == "" {
			log.Warn().Err(err).Msg("dropping malformed error event")
			return
		}
		a.Notify(model.NotificationError, p.Message)
	default:
		log.Debug().Str("event", f.Event).Msg("ignoring realtime event")
	}
}

func (a *App) receiveMessage(m model.Message) {
	before := a.Store.State()
	if _, dup := before.Chat.Seen[m.ID]; dup {
		return
	}
	self := before.SelfID()
	participant := m.Participant(self)
	_, known := before.Chat.ConversationFor(participant)

	after := a.Store.Dispatch(store.MessageReceived{Message: m})

	if m.SenderID != self && participant != after.Chat.Active {
		a.Notify(model.NotificationInfo, newMessageText(participantName(after, participant)))
	}
	if !known {
		a.goBackground(func(ctx context.Context) {
			if _, err := a.Chat.FetchConversations(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to refresh conversations after new participant")
			}
		})
	}
}

func (a *App) handleState(s realtime.State) {
	switch s {
	case realtime.Connected:
		a.authRecovering.Store(false)
		if active := a.Store.State().Chat.Active; active != "" {
			if err := a.Channel.JoinRoom(active); err != nil {
				log.Warn().Err(err).Str("room", active).Msg("failed to rejoin room")
			}
		}
	case realtime.Disconnected:
		if a.authLost.Swap(false) && !a.authRecovering.Swap(true) {
			a.goBackground(func(ctx context.Context) {
				// a successful refresh reconnects through the session listener
				if _, err := a.Auth.Refresh(ctx); err != nil {
					log.Warn().Err(err).Msg("realtime authentication could not be recovered")
				}
			})
		}
	}
}

func (a *App) handleError(err error) {
	if taskerrors.Is(err, taskerrors.ErrAuthLost) {
		a.authLost.Store(true)
	}
	a.Notify(model.NotificationError, connectFailedMessage)
}
