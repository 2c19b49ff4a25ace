package sessions_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/sessions"
	"github.com/jrsteele09/go-taskboard/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestManager_SetPersistsAndNotifies(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()
	m := sessions.NewManager(repo)

	var seen []*sessions.Session
	m.OnChange(func(s *sessions.Session) { seen = append(seen, s) })

	s, err := m.Set(model.AuthResponse{
		Token:        "access-1",
		RefreshToken: "refresh-1",
		User:         model.User{ID: "u1", Name: "Ann"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", s.Token.TokenType)
	require.Equal(t, "u1", m.UserID())
	require.Equal(t, "refresh-1", m.RefreshToken())

	stored, err := repo.Load(sessions.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "access-1", stored)
	stored, err = repo.Load(sessions.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", stored)

	require.Len(t, seen, 1)
	require.Equal(t, "access-1", seen[0].Token.AccessToken)
}

func TestManager_SetRejectsEmptyToken(t *testing.T) {
	m := sessions.NewManager(repofakes.NewFakeSessionRepo())
	_, err := m.Set(model.AuthResponse{})
	require.Error(t, err)
	require.Nil(t, m.Current())
}

func TestManager_JWTClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, jwtlib.MapClaims{
		"sub":   "u7",
		"email": "bob@example.com",
		"name":  "Bob",
		"exp":   exp.Unix(),
	})

	m := sessions.NewManager(repofakes.NewFakeSessionRepo())
	s, err := m.Set(model.AuthResponse{Token: raw, RefreshToken: "r"})
	require.NoError(t, err)
	require.True(t, s.Token.Expiry.Equal(exp))
	require.True(t, s.Token.Valid())
	require.Equal(t, model.User{ID: "u7", Email: "bob@example.com", Name: "Bob"}, s.User)
}

func TestManager_ExpiredTokenIsNotValid(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})
	tok := sessions.NewToken(raw, "r")
	require.False(t, tok.Valid())
	require.True(t, sessions.Expired(tok, time.Now()))
	require.False(t, sessions.Expired(sessions.NewToken("opaque", ""), time.Now()))
}

func TestManager_UpdateTokensKeepsUser(t *testing.T) {
	m := sessions.NewManager(repofakes.NewFakeSessionRepo())

	_, err := m.UpdateTokens("a", "r")
	require.ErrorIs(t, err, taskerrors.ErrNoSession)

	_, err = m.Set(model.AuthResponse{Token: "a1", RefreshToken: "r1", User: model.User{ID: "u1"}})
	require.NoError(t, err)

	s, err := m.UpdateTokens("a2", "")
	require.NoError(t, err)
	require.Equal(t, "a2", s.Token.AccessToken)
	require.Equal(t, "r1", s.Token.RefreshToken, "refresh token is kept when the response omits it")
	require.Equal(t, "u1", s.User.ID)
}

func TestManager_ClearRemovesPersistedTokens(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()
	m := sessions.NewManager(repo)
	_, err := m.Set(model.AuthResponse{Token: "a1", RefreshToken: "r1"})
	require.NoError(t, err)

	var cleared int
	remove := m.OnChange(func(s *sessions.Session) {
		if s == nil {
			cleared++
		}
	})

	require.NoError(t, m.Clear())
	require.NoError(t, m.Clear(), "clearing twice is harmless")
	require.Nil(t, m.Current())
	require.Nil(t, m.Token())
	require.Equal(t, 0, repo.Len())
	require.Equal(t, 1, cleared, "listeners only hear about an actual teardown")

	remove()
	_, err = m.Set(model.AuthResponse{Token: "a2"})
	require.NoError(t, err)
	require.NoError(t, m.Clear())
	require.Equal(t, 1, cleared)
}

func TestManager_Restore(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()

	s, err := sessions.NewManager(repo).Restore()
	require.NoError(t, err)
	require.Nil(t, s)

	raw := signedToken(t, jwtlib.MapClaims{"sub": "u3", "name": "Cat"})
	require.NoError(t, repo.Save(sessions.TokenKey, raw))
	require.NoError(t, repo.Save(sessions.RefreshTokenKey, "r3"))

	m := sessions.NewManager(repo)
	s, err = m.Restore()
	require.NoError(t, err)
	require.Equal(t, "u3", s.User.ID)
	require.Equal(t, "Cat", s.User.Name)
	require.Equal(t, "r3", m.RefreshToken())
}

func TestManager_CurrentReturnsCopy(t *testing.T) {
	m := sessions.NewManager(repofakes.NewFakeSessionRepo())
	_, err := m.Set(model.AuthResponse{Token: "a1"})
	require.NoError(t, err)

	c := m.Current()
	c.Token.AccessToken = "mutated"
	require.Equal(t, "a1", m.Token().AccessToken)
}
