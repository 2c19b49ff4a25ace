package store

import (
	"slices"
	"sync"
)

// Store is the single owner of the application state. Dispatches are
// serialized; subscribers are called after each swap with the new snapshot,
// outside the lock, so they may dispatch themselves.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(State)
}

func New() *Store {
	return &Store{}
}

// NewWithState starts the store from an existing snapshot.
func NewWithState(s State) *Store {
	return &Store{state: s}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the current state and returns the new snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub.fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn for every future snapshot. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}
