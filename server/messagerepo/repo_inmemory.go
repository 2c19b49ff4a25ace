package messagerepo

import (
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-taskboard/model"
)

// InMemoryMessageRepo is an append-only message log.
type InMemoryMessageRepo struct {
	mu       sync.RWMutex
	messages []model.Message
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{}
}

func (r *InMemoryMessageRepo) Add(m model.Message) error {
	if m.ID == "" {
		return errors.New("message id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *InMemoryMessageRepo) Between(a, b string) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Message{}
	for _, m := range r.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *InMemoryMessageRepo) Involving(userID string) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Message{}
	for _, m := range r.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *InMemoryMessageRepo) MarkRead(sender, recipient string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i, m := range r.messages {
		if m.SenderID == sender && m.RecipientID == recipient && !m.Read {
			r.messages[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *InMemoryMessageRepo) LatestFrom(sender, recipient string, since time.Time) (model.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		if m.Timestamp.Before(since) {
			break
		}
		if m.SenderID == sender && m.RecipientID == recipient {
			return m, true
		}
	}
	return model.Message{}, false
}
