package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/auth"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/users"
)

// LoginHandler exchanges email and password for a token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	validator := auth.NewValidator()
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validator.ValidateLogin(req); err != nil {
			writeValidationError(w, err)
			return
		}

		user, err := s.repos.Users.GetByEmail(users.NormalizeEmail(req.Email))
		if err != nil || !user.CheckPassword(req.Password) {
			writeJSONError(w, "invalid_credentials", "Invalid email or password", http.StatusUnauthorized)
			return
		}

		user.LastLogin = s.nowFunc().UTC()
		if err := s.repos.Users.Upsert(user); err != nil {
			log.Err(err).Str("user", user.ID).Msg("[LoginHandler] failed to record last login")
		}
		s.issueTokens(w, user.Public(), http.StatusOK)
	}
}

// RegisterHandler creates an account and signs it in.
func (s *Server) RegisterHandler() http.HandlerFunc {
	validator := auth.NewValidator()
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validator.ValidateRegistration(req); err != nil {
			writeValidationError(w, err)
			return
		}

		user, err := users.NewUser(req.Name, req.Email, req.Password)
		if err != nil {
			log.Err(err).Msg("[RegisterHandler] failed to create user")
			writeJSONError(w, "server_error", "Registration failed", http.StatusInternalServerError)
			return
		}
		if err := s.repos.Users.Create(user); err != nil {
			if errors.Is(err, users.ErrEmailTaken) {
				writeJSONError(w, "email_taken", "Email already registered", http.StatusConflict)
				return
			}
			log.Err(err).Msg("[RegisterHandler] failed to store user")
			writeJSONError(w, "server_error", "Registration failed", http.StatusInternalServerError)
			return
		}
		s.issueTokens(w, user.Public(), http.StatusCreated)
	}
}

// RefreshHandler rotates a refresh token and issues a new access token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if s.failRefresh.Load() {
			writeJSONError(w, "invalid_grant", "Refresh failed", http.StatusUnauthorized)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, "invalid_request", "Refresh token is required", http.StatusBadRequest)
			return
		}

		old, next, err := s.refresh.Rotate(req.RefreshToken)
		if err != nil {
			writeJSONError(w, "invalid_grant", "Invalid refresh token", http.StatusUnauthorized)
			return
		}
		user, err := s.repos.Users.GetByID(old.UserID)
		if err != nil {
			_ = s.refresh.Delete(next)
			writeJSONError(w, "invalid_grant", "Invalid refresh token", http.StatusUnauthorized)
			return
		}

		access, err := s.tokens.CreateAccessToken(user.Public())
		if err != nil {
			log.Err(err).Msg("[RefreshHandler] failed to sign access token")
			writeJSONError(w, "server_error", "Refresh failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, model.AuthResponse{Token: access, RefreshToken: next, User: user.Public()}, http.StatusOK)
	}
}

func (s *Server) issueTokens(w http.ResponseWriter, user model.User, status int) {
	access, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		log.Err(err).Msg("[issueTokens] failed to sign access token")
		writeJSONError(w, "server_error", "Authentication failed", http.StatusInternalServerError)
		return
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		log.Err(err).Msg("[issueTokens] failed to create refresh token")
		writeJSONError(w, "server_error", "Authentication failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, model.AuthResponse{Token: access, RefreshToken: refreshToken, User: user}, status)
}
