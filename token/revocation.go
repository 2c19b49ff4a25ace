package token

import (
	"sync"
	"time"
)

// RevocationList remembers revoked access tokens by jti until they would
// have expired anyway.
type RevocationList interface {
	Revoke(jti string, until time.Time)
	Revoked(jti string, now time.Time) bool
	Prune(now time.Time) int
}

type memoryRevocations struct {
	mu    sync.RWMutex
	until map[string]time.Time
}

func NewMemoryRevocations() RevocationList {
	return &memoryRevocations{until: map[string]time.Time{}}
}

func (r *memoryRevocations) Revoke(jti string, until time.Time) {
	r.mu.Lock()
	r.until[jti] = until
	r.mu.Unlock()
}

// Revoked reports false once the token's own expiry has passed; by then
// Validate rejects it without the list.
func (r *memoryRevocations) Revoked(jti string, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	until, ok := r.until[jti]
	return ok && !now.After(until)
}

// Prune drops entries past their expiry and returns how many went.
func (r *memoryRevocations) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for jti, until := range r.until {
		if now.After(until) {
			delete(r.until, jti)
			n++
		}
	}
	return n
}
