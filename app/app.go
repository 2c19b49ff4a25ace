// Package app owns one client session end to end: the store, the session
// manager, the REST services and the realtime channel, and the glue between them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/api"
	"github.com/jrsteele09/go-taskboard/auth"
	"github.com/jrsteele09/go-taskboard/chat"
	"github.com/jrsteele09/go-taskboard/internal/config"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
	"github.com/jrsteele09/go-taskboard/sessions"
	"github.com/jrsteele09/go-taskboard/store"
	"github.com/jrsteele09/go-taskboard/tasks"
)

const (
	connectFailedMessage = "Failed to connect to chat server"
	refetchTimeout       = 10 * time.Second
)

// Config is the part of the configuration the client needs.
type Config interface {
	config.APIConfig
	config.RealtimeConfig
}

type App struct {
	Store    *store.Store
	Sessions *sessions.Manager
	API      *api.Client
	Auth     *auth.Service
	Tasks    *tasks.Service
	Chat     *chat.Service
	Channel  *realtime.Channel

	httpClient *http.Client
	dialer     *websocket.Dialer
	taskOpts   []tasks.ServiceOption

	ctx          context.Context
	cancel       context.CancelFunc
	background   sync.WaitGroup
	stopSessions func()

	authLost       atomic.Bool
	authRecovering atomic.Bool
}

type Option func(*App)

func WithHTTPClient(c *http.Client) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(a *App) {
		a.dialer = d
	}
}

func WithTaskOptions(opts ...tasks.ServiceOption) Option {
	return func(a *App) {
		a.taskOpts = append(a.taskOpts, opts...)
	}
}

// New wires a client around repo, where the session tokens are persisted.
// Nothing connects until a session exists; call Start to restore one.
func New(cfg Config, repo sessions.Repo, options ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[app New] config is required")
	}
	if repo == nil {
		return nil, errors.New("[app New] session repo is required")
	}

	a := &App{
		Store:    store.New(),
		Sessions: sessions.NewManager(repo),
	}
	for _, opt := range options {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.API = api.NewClient(cfg.GetAPIBaseURL(), cfg.GetRequestTimeout(), a.httpClient, a.Sessions)

	var err error
	if a.Auth, err = auth.NewService(a.API, a.Sessions, a.Store); err != nil {
		return nil, err
	}
	if a.Tasks, err = tasks.NewService(a.API, a.Store, a.taskOpts...); err != nil {
		return nil, err
	}
	if a.Chat, err = chat.NewService(a.API, a.Store); err != nil {
		return nil, err
	}

	a.Channel = realtime.New(realtime.Options{
		URL:               cfg.GetRealtimeURL(),
		ReconnectAttempts: cfg.GetReconnectAttempts(),
		ReconnectDelay:    cfg.GetReconnectDelay(),
		Dialer:            a.dialer,
		TokenSource:       a.Sessions.Token,
		Handlers: realtime.Handlers{
			OnEvent: a.handleEvent,
			OnState: a.handleState,
			OnError: a.handleError,
		},
	})
	a.stopSessions = a.Sessions.OnChange(a.sessionChanged)
	return a, nil
}

// Start restores a persisted session, which connects the realtime channel.
func (a *App) Start() error {
	_, err := a.Auth.Restore()
	return err
}

// Close disconnects the channel and waits for background work. The session
// stays persisted.
func (a *App) Close() {
	a.stopSessions()
	a.cancel()
	a.Channel.Disconnect()
	a.background.Wait()
}

func (a *App) sessionChanged(s *sessions.Session) {
	if s == nil {
		a.Channel.Disconnect()
		a.Store.Dispatch(store.LoggedOut{})
		return
	}
	if a.ctx.Err() != nil {
		return
	}
	if err := a.Channel.Connect(s.Token); err != nil {
		log.Warn().Err(err).Msg("realtime connect skipped")
	}
}

// SetActiveConversation opens the conversation with participantID: joins its
// room, marks it read and loads its history.
func (a *App) SetActiveConversation(ctx context.Context, participantID string) error {
	a.Store.Dispatch(store.ActiveConversationSet{ParticipantID: participantID})
	if a.Channel.State() == realtime.Connected {
		if err := a.Channel.SwitchRoom(participantID); err != nil {
			log.Warn().Err(err).Str("room", participantID).Msg("failed to switch room")
		}
	}
	readErr := a.Chat.MarkRead(ctx, participantID)
	_, fetchErr := a.Chat.FetchMessages(ctx, participantID)
	return taskerrors.Join(readErr, fetchErr)
}

func (a *App) ClearActiveConversation() {
	active := a.Store.State().Chat.Active
	a.Store.Dispatch(store.ActiveConversationCleared{})
	if active != "" {
		if err := a.Channel.LeaveRoom(active); err != nil && !taskerrors.Is(err, taskerrors.ErrNotConnected) {
			log.Warn().Err(err).Str("room", active).Msg("failed to leave room")
		}
	}
}

// SendMessage writes over REST and, once acknowledged, relays over the
// realtime channel without waiting on it.
func (a *App) SendMessage(ctx context.Context, recipientID, content string) (*model.Message, error) {
	m, err := a.Chat.Send(ctx, recipientID, content)
	if err != nil {
		return nil, err
	}
	if err := a.Channel.SendMessage(recipientID, content); err != nil {
		log.Debug().Err(err).Str("recipient", recipientID).Msg("realtime relay skipped")
	}
	return m, nil
}

// Notify adds a notification and removes it once its timeout elapses.
func (a *App) Notify(typ model.NotificationType, message string) {
	n := store.Notify(typ, message)
	a.Store.Dispatch(n)
	id := n.Notification.ID
	time.AfterFunc(n.Notification.Timeout, func() {
		a.Store.Dispatch(store.NotificationRemoved{ID: id})
	})
}

func (a *App) goBackground(fn func(ctx context.Context)) {
	if a.ctx.Err() != nil {
		return
	}
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		ctx, cancel := context.WithTimeout(a.ctx, refetchTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func participantName(s store.State, participantID string) string {
	if c, ok := s.Chat.ConversationFor(participantID); ok && !store.IsPlaceholder(c) && c.ParticipantName != "" {
		return c.ParticipantName
	}
	return store.UnknownParticipant
}

func newMessageText(name string) string {
	return fmt.Sprintf("New message from %s", name)
}
