package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-taskboard/internal/config"
)

var (
	ErrInvalid = errors.New("invalid refresh token")
	ErrExpired = errors.New("refresh token expired")
)

// DefaultReuseWindow is how long a rotated token keeps answering with its
// successor. Concurrent clients that refresh with the same token all receive
// the same next token instead of all but one being rejected.
const DefaultReuseWindow = 30 * time.Second

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	mu          sync.Mutex
	repo        Repo
	config      config.SecurityConfig
	reuseWindow time.Duration
	nowFunc     func() time.Time
}

func NewManager(repo Repo, cfg config.SecurityConfig) *Manager {
	return &Manager{
		repo:        repo,
		config:      cfg,
		reuseWindow: DefaultReuseWindow,
		nowFunc:     time.Now,
	}
}

// WithNowFunc replaces the clock used for expiry checks.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.nowFunc = now
	return m
}

// WithReuseWindow sets how long a rotated token still resolves to its
// successor. Zero makes tokens strictly single use.
func (m *Manager) WithReuseWindow(d time.Duration) *Manager {
	m.reuseWindow = d
	return m
}

// Create generates a new refresh token for userID and stores it
func (m *Manager) Create(userID string) (string, error) {
	tokenBytes := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("[refresh Create] failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", fmt.Errorf("[refresh Create] failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Rotate exchanges token for its successor. The first call mints the
// successor; repeated calls within the reuse window return the same one, and
// any later use is rejected.
func (m *Manager) Rotate(token string) (*StoredRefreshToken, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, "", fmt.Errorf("[refresh Rotate] %w", ErrInvalid)
	}
	now := m.nowFunc()

	if rt.ReplacedBy != "" {
		if now.Sub(rt.RotatedAt) > m.reuseWindow {
			_ = m.repo.Delete(token)
			return nil, "", fmt.Errorf("[refresh Rotate] %w: already used", ErrInvalid)
		}
		if _, err := m.repo.Get(rt.ReplacedBy); err != nil {
			return nil, "", fmt.Errorf("[refresh Rotate] %w: successor gone", ErrInvalid)
		}
		return rt, rt.ReplacedBy, nil
	}

	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, "", fmt.Errorf("[refresh Rotate] %w", ErrExpired)
	}
	next, err := m.Create(rt.UserID)
	if err != nil {
		return nil, "", err
	}
	rt.ReplacedBy = next
	rt.RotatedAt = now
	if err := m.repo.Upsert(rt); err != nil {
		return nil, "", fmt.Errorf("[refresh Rotate] failed to mark rotated token: %w", err)
	}
	return rt, next, nil
}

func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.Iat) > m.config.GetRefreshTokenExpiry()
}
