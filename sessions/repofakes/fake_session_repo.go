package repofakes

import (
	"sync"

	"github.com/jrsteele09/go-taskboard/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string]string),
	}
}

func (sr *FakeSessionRepo) Save(key, value string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.values[key] = value
	return nil
}

func (sr *FakeSessionRepo) Load(key string) (string, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	v, ok := sr.values[key]
	if !ok {
		return "", sessions.ErrKeyNotFound
	}
	return v, nil
}

func (sr *FakeSessionRepo) Delete(key string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	delete(sr.values, key)
	return nil
}

// Len is a test helper returning the number of stored keys
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.values)
}
