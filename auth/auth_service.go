// Package auth performs the session actions: login, registration, refresh,
// logout and restoring a persisted session.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/api"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/sessions"
	"github.com/jrsteele09/go-taskboard/store"
)

// Service ties the REST client, the session manager and the store together.
type Service struct {
	client    *api.Client
	sessions  *sessions.Manager
	store     *store.Store
	validator *Validator
}

// NewService initializes a Service with required dependencies.
func NewService(client *api.Client, sm *sessions.Manager, st *store.Store) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] API client is required")
	}
	if sm == nil {
		return nil, errors.New("[NewService] session manager is required")
	}
	if st == nil {
		return nil, errors.New("[NewService] store is required")
	}
	return &Service{client: client, sessions: sm, store: st, validator: NewValidator()}, nil
}

// Login authenticates with email and password and stores the resulting session.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*sessions.Session, error) {
	if err := s.validator.ValidateLogin(req); err != nil {
		s.store.Dispatch(store.AuthFailed{Error: err.Error()})
		return nil, err
	}
	return s.authenticate(ctx, api.RouteAuthLogin, req, "Login failed")
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*sessions.Session, error) {
	if err := s.validator.ValidateRegistration(req); err != nil {
		s.store.Dispatch(store.AuthFailed{Error: err.Error()})
		return nil, err
	}
	return s.authenticate(ctx, api.RouteAuthRegister, req, "Registration failed")
}

func (s *Service) authenticate(ctx context.Context, path string, body any, fallback string) (*sessions.Session, error) {
	s.store.Dispatch(store.AuthPending{})

	var resp model.AuthResponse
	err := s.client.Do(ctx, api.Request{Method: http.MethodPost, Path: path, Body: body, Public: true}, &resp)
	if err != nil {
		s.store.Dispatch(store.AuthFailed{Error: api.Message(err, fallback)})
		return nil, err
	}

	sess, err := s.sessions.Set(resp)
	if err != nil {
		s.store.Dispatch(store.AuthFailed{Error: fallback})
		return nil, err
	}
	log.Info().Str("user", sess.User.ID).Str("path", path).Msg("authenticated")
	s.store.Dispatch(store.AuthSucceeded{User: sess.User})
	return sess, nil
}

// Refresh rotates the token pair. A failed refresh ends the session unless
// another caller rotated it in the meantime, in which case that session is kept.
func (s *Service) Refresh(ctx context.Context) (*sessions.Session, error) {
	used := s.sessions.RefreshToken()
	sess, err := s.client.Refresh(ctx)
	if err != nil {
		if cur := s.sessions.Current(); cur != nil && cur.Token.RefreshToken != used {
			log.Debug().Err(err).Msg("refresh lost a race, keeping the rotated session")
			return cur, nil
		}
		log.Warn().Err(err).Msg("refresh failed, logging out")
		s.Logout()
		return nil, err
	}
	s.store.Dispatch(store.AuthSucceeded{User: sess.User})
	return sess, nil
}

// Logout discards the session locally. The backend keeps no logout state.
func (s *Service) Logout() {
	if err := s.sessions.Clear(); err != nil {
		log.Err(err).Msg("failed to clear persisted session")
	}
	s.store.Dispatch(store.LoggedOut{})
}

// Restore loads a persisted session, if any, and marks the store authenticated.
// An expired access token is kept: the first request refreshes it.
func (s *Service) Restore() (*sessions.Session, error) {
	sess, err := s.sessions.Restore()
	if err != nil || sess == nil {
		return nil, err
	}
	s.store.Dispatch(store.AuthSucceeded{User: sess.User})
	return sess, nil
}
