package messagerepo

import (
	"time"

	"github.com/jrsteele09/go-taskboard/model"
)

type Repo interface {
	Add(m model.Message) error
	// Between returns the messages exchanged by a and b, oldest first.
	Between(a, b string) ([]model.Message, error)
	// Involving returns every message sent or received by userID.
	Involving(userID string) ([]model.Message, error)
	// MarkRead marks the messages from sender to recipient read and returns how many changed.
	MarkRead(sender, recipient string) (int, error)
	// LatestFrom returns the newest message from sender to recipient at or after since.
	LatestFrom(sender, recipient string, since time.Time) (model.Message, bool)
}
