package refresh

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("refresh token not found")

// StoredRefreshToken is the server-side record of a refresh token. The client
// only ever sees Token, an opaque random string. A rotated token keeps its
// record, pointing at its successor, until the reuse window has passed.
type StoredRefreshToken struct {
	Token      string
	UserID     string
	Iat        time.Time
	ReplacedBy string
	RotatedAt  time.Time
}

// Repo stores refresh token metadata keyed by the token string.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
}
