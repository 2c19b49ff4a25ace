package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated model.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth validates a Bearer access token and injects the caller into the
// request context. Browsers cannot set headers on a websocket handshake, so a
// token query parameter is accepted as well.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, "unauthorized", "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := s.tokens.Validate(raw)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					writeJSONError(w, "token_expired", "Token expired", http.StatusUnauthorized)
					return
				}
				writeJSONError(w, "unauthorized", "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, claims.User)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if raw := r.URL.Query().Get("token"); raw != "" {
		return raw, true
	}
	return "", false
}

// UserFromContext returns the caller set by RequireAuth.
func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(ContextKeyUser).(model.User)
	return u, ok && u.ID != ""
}
