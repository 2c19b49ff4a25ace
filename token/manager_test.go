package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/token"
)

func TestManager_CreateAndValidate(t *testing.T) {
	now := time.Now()
	m := token.New(token.NewHMACSigner("secret"),
		token.WithIssuer("taskboard"),
		token.WithTokenExpiry(time.Minute),
		token.WithNowFunc(func() time.Time { return now }))

	raw, err := m.CreateAccessToken(model.User{ID: "u1", Email: "ann@example.com", Name: "Ann"})
	require.NoError(t, err)

	claims, err := m.Validate(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.User.ID)
	require.Equal(t, "Ann", claims.User.Name)
	require.NotEmpty(t, claims.ID)

	now = now.Add(2 * time.Minute)
	_, err = m.Validate(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestManager_RejectsForeignTokens(t *testing.T) {
	m := token.New(token.NewHMACSigner("secret"), token.WithIssuer("taskboard"))
	other := token.New(token.NewHMACSigner("other-secret"), token.WithIssuer("taskboard"))

	raw, err := other.CreateAccessToken(model.User{ID: "u1"})
	require.NoError(t, err)
	_, err = m.Validate(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = m.Validate("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestManager_Revoke(t *testing.T) {
	m := token.New(token.NewHMACSigner("secret"))
	raw, err := m.CreateAccessToken(model.User{ID: "u1"})
	require.NoError(t, err)

	require.NoError(t, m.Revoke(raw))
	_, err = m.Validate(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)

	fresh, err := m.CreateAccessToken(model.User{ID: "u1"})
	require.NoError(t, err)
	_, err = m.Validate(fresh)
	require.NoError(t, err)
}

func TestManager_SharedRevocationList(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	list := token.NewMemoryRevocations()
	a := token.New(token.NewHMACSigner("secret"), token.WithRevocationList(list), token.WithNowFunc(clock), token.WithTokenExpiry(time.Minute))
	b := token.New(token.NewHMACSigner("secret"), token.WithRevocationList(list), token.WithNowFunc(clock), token.WithTokenExpiry(time.Minute))

	raw, err := a.CreateAccessToken(model.User{ID: "u1"})
	require.NoError(t, err)
	require.NoError(t, a.Revoke(raw))

	_, err = b.Validate(raw)
	require.ErrorIs(t, err, token.ErrTokenExpired)

	now = now.Add(2 * time.Minute)
	require.Equal(t, 1, list.Prune(now))
	require.Zero(t, list.Prune(now))
}
