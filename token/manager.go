package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrsteele09/go-taskboard/model"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

// Claims is what a verified access token says about its bearer.
type Claims struct {
	ID        string // jti
	User      model.User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and verifies access tokens.
type Manager struct {
	signer            Signer
	issuer            string
	accessTokenExpiry time.Duration
	revoked           RevocationList
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocationList(list RevocationList) ManagerOption {
	return func(m *Manager) {
		m.revoked = list
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		revoked: NewMemoryRevocations(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// CreateAccessToken signs a token for user carrying sub, email and name.
func (m *Manager) CreateAccessToken(user model.User) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":   m.issuer,
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(m.accessTokenExpiry).Unix(),
		"jti":   uuid.New().String(),
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[token CreateAccessToken] %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, expiry and revocation.
func (m *Manager) Validate(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signer.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, m.signer.Keyfunc, opts...); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("[token Validate] %w", ErrTokenExpired)
		}
		return nil, fmt.Errorf("[token Validate] %w: %w", ErrInvalidToken, err)
	}

	c := &Claims{}
	c.ID, _ = claims["jti"].(string)
	c.User.ID, _ = claims["sub"].(string)
	c.User.Email, _ = claims["email"].(string)
	c.User.Name, _ = claims["name"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if c.User.ID == "" {
		return nil, fmt.Errorf("[token Validate] %w: missing subject", ErrInvalidToken)
	}
	if c.ID != "" && m.revoked.Revoked(c.ID, m.nowFunc()) {
		return nil, fmt.Errorf("[token Validate] %w: revoked", ErrTokenExpired)
	}
	return c, nil
}

// Revoke rejects raw from now on, as if it had expired.
func (m *Manager) Revoke(raw string) error {
	c, err := m.Validate(raw)
	if err != nil {
		return err
	}
	if c.ID == "" {
		return fmt.Errorf("[token Revoke] %w: no jti", ErrInvalidToken)
	}
	m.revoked.Prune(m.nowFunc())
	m.revoked.Revoke(c.ID, c.ExpiresAt)
	return nil
}
