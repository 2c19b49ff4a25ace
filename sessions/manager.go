package sessions

import (
	"errors"
	"fmt"
	"sync"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"golang.org/x/oauth2"
)

// Manager owns the process-wide session. It is shared by every consumer of the
// session (HTTP client, realtime channel, services) and persists the tokens
// through a Repo.
type Manager struct {
	repo Repo

	mu        sync.RWMutex
	current   *Session
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(*Session)
}

// NewManager creates a session manager backed by repo
func NewManager(repo Repo) *Manager {
	return &Manager{repo: repo}
}

// OnChange registers fn to be called with a copy of the new session whenever it
// is set, refreshed or cleared (nil). The returned func removes the listener.
func (m *Manager) OnChange(fn func(*Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Set replaces the current session with the result of a login or registration.
func (m *Manager) Set(resp model.AuthResponse) (*Session, error) {
	if resp.Token == "" {
		return nil, fmt.Errorf("[sessions Set] empty access token")
	}
	s := &Session{Token: NewToken(resp.Token, resp.RefreshToken), User: resp.User}
	if s.User.ID == "" {
		if u, ok := UserFromToken(resp.Token); ok {
			s.User = u
		}
	}
	if err := m.persist(s.Token); err != nil {
		return nil, err
	}
	m.swap(s)
	return s.clone(), nil
}

// UpdateTokens rotates the tokens of the current session, keeping its user.
func (m *Manager) UpdateTokens(accessToken, refreshToken string) (*Session, error) {
	m.mu.RLock()
	cur := m.current.clone()
	m.mu.RUnlock()
	if cur == nil {
		return nil, taskerrors.ErrNoSession
	}
	if refreshToken == "" {
		refreshToken = cur.Token.RefreshToken
	}
	cur.Token = NewToken(accessToken, refreshToken)
	if err := m.persist(cur.Token); err != nil {
		return nil, err
	}
	m.swap(cur)
	return cur.clone(), nil
}

// Clear destroys the session and its persisted tokens. Clearing when no
// session exists only removes whatever is persisted.
func (m *Manager) Clear() error {
	err := errors.Join(m.repo.Delete(TokenKey), m.repo.Delete(RefreshTokenKey))

	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	if had {
		for _, fn := range listeners {
			fn(nil)
		}
	}
	if err != nil {
		return fmt.Errorf("[sessions Clear] %w", err)
	}
	return nil
}

// Restore loads the persisted tokens, if any, into the current session.
// It returns nil, nil when nothing is stored.
func (m *Manager) Restore() (*Session, error) {
	access, err := m.repo.Load(TokenKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[sessions Restore] load token: %w", err)
	}
	refresh, err := m.repo.Load(RefreshTokenKey)
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("[sessions Restore] load refresh token: %w", err)
	}

	s := &Session{Token: NewToken(access, refresh)}
	if u, ok := UserFromToken(access); ok {
		s.User = u
	}
	m.swap(s)
	return s.clone(), nil
}

// Current returns a copy of the session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// Token returns a copy of the current token, or nil when logged out.
func (m *Manager) Token() *oauth2.Token {
	if s := m.Current(); s != nil {
		return s.Token
	}
	return nil
}

func (m *Manager) RefreshToken() string {
	if t := m.Token(); t != nil {
		return t.RefreshToken
	}
	return ""
}

func (m *Manager) UserID() string {
	if s := m.Current(); s != nil {
		return s.User.ID
	}
	return ""
}

func (m *Manager) persist(t *oauth2.Token) error {
	if err := m.repo.Save(TokenKey, t.AccessToken); err != nil {
		return fmt.Errorf("[sessions persist] save token: %w", err)
	}
	if t.RefreshToken == "" {
		return m.repo.Delete(RefreshTokenKey)
	}
	if err := m.repo.Save(RefreshTokenKey, t.RefreshToken); err != nil {
		return fmt.Errorf("[sessions persist] save refresh token: %w", err)
	}
	return nil
}

func (m *Manager) swap(s *Session) {
	m.mu.Lock()
	m.current = s
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(s.clone())
	}
}

// snapshotListeners must be called with mu held
func (m *Manager) snapshotListeners() []func(*Session) {
	out := make([]func(*Session), 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l.fn)
	}
	return out
}
