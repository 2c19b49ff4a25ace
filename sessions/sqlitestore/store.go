// Package sqlitestore persists session tokens in a local SQLite database, the
// on-disk equivalent of the browser's local storage.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jrsteele09/go-taskboard/sessions"
)

var _ sessions.Repo = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("[sqlitestore Open] create folder: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("[sqlitestore Open] %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS session_kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[sqlitestore Open] create table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO session_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("[sqlitestore Save] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Load(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sessions.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[sqlitestore Load] %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM session_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("[sqlitestore Delete] %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
