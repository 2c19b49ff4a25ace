package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-taskboard/model"
	"golang.org/x/oauth2"
)

// Session is the authenticated identity and its tokens. Exactly one exists
// per process at a time, owned by a Manager.
type Session struct {
	Token *oauth2.Token // AccessToken, RefreshToken and, for JWTs, Expiry
	User  model.User
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Token != nil {
		t := *s.Token
		c.Token = &t
	}
	return &c
}

// NewToken wraps the opaque token strings returned by the backend. When the
// access token is a JWT its exp claim becomes the token expiry; the signature
// is not verified, the backend remains the authority.
func NewToken(accessToken, refreshToken string) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if claims, ok := unverifiedClaims(accessToken); ok {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			t.Expiry = exp.Time
		}
	}
	return t
}

// UserFromToken extracts the identity claims (sub, email, name) of a JWT
// access token. Used when a session is restored from storage without a user.
func UserFromToken(accessToken string) (model.User, bool) {
	claims, ok := unverifiedClaims(accessToken)
	if !ok {
		return model.User{}, false
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return model.User{}, false
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return model.User{ID: sub, Email: email, Name: name}, true
}

// Expired reports whether the access token has a known expiry in the past.
func Expired(t *oauth2.Token, now time.Time) bool {
	return t != nil && !t.Expiry.IsZero() && !now.Before(t.Expiry)
}

func unverifiedClaims(rawToken string) (jwtlib.MapClaims, bool) {
	if rawToken == "" {
		return nil, false
	}
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	return claims, ok
}
