package sessions

import "errors"

// Keys under which the session tokens are persisted. The values are opaque strings.
const (
	TokenKey        = "token"
	RefreshTokenKey = "refreshToken"
)

var ErrKeyNotFound = errors.New("session key not found")

// Repo persists session tokens across process restarts, keyed by opaque strings.
type Repo interface {
	// Save creates or replaces the value stored under key
	Save(key, value string) error

	// Load returns ErrKeyNotFound when nothing is stored under key
	Load(key string) (string, error)

	// Delete removes key; deleting a missing key is not an error
	Delete(key string) error
}
