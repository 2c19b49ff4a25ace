package pgstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/server/messagerepo"
)

var _ messagerepo.Repo = (*MessageRepo)(nil)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, recipient_id, content, sent_at, read`

func (r *MessageRepo) Add(m model.Message) error {
	if m.ID == "" {
		return errors.New("[pgstore MessageRepo Add] message id is required")
	}
	_, err := r.db.Exec(`INSERT INTO messages (`+messageColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SenderID, m.RecipientID, m.Content, m.Timestamp, m.Read)
	if err != nil {
		return fmt.Errorf("[pgstore MessageRepo Add] %w", err)
	}
	return nil
}

func (r *MessageRepo) Between(a, b string) ([]model.Message, error) {
	return r.list(`SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY seq`, a, b)
}

func (r *MessageRepo) Involving(userID string) ([]model.Message, error) {
	return r.list(`SELECT `+messageColumns+` FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY seq`, userID)
}

func (r *MessageRepo) MarkRead(sender, recipient string) (int, error) {
	res, err := r.db.Exec(`UPDATE messages SET read = TRUE
		WHERE sender_id = $1 AND recipient_id = $2 AND NOT read`, sender, recipient)
	if err != nil {
		return 0, fmt.Errorf("[pgstore MessageRepo MarkRead] %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("[pgstore MessageRepo MarkRead] %w", err)
	}
	return int(n), nil
}

func (r *MessageRepo) LatestFrom(sender, recipient string, since time.Time) (model.Message, bool) {
	m, err := scanMessage(r.db.QueryRow(`SELECT `+messageColumns+` FROM messages
		WHERE sender_id = $1 AND recipient_id = $2 AND sent_at >= $3
		ORDER BY seq DESC LIMIT 1`, sender, recipient, since))
	if err != nil {
		return model.Message{}, false
	}
	return m, true
}

func (r *MessageRepo) list(query string, args ...any) ([]model.Message, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("[pgstore MessageRepo] %w", err)
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("[pgstore MessageRepo] %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(row scanner) (model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Timestamp, &m.Read)
	if err == nil {
		m.Timestamp = m.Timestamp.UTC()
	}
	return m, err
}
