// Package storage provides the local key-value blob store the rest of
// the application persists into. Values round-trip through JSON; a
// value that no longer parses is treated as absent rather than
// propagated as an error.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/itiva/nettriad/internal/model"

	_ "modernc.org/sqlite"
)

// Well-known storage keys.
const (
	KeyActiveDraft      = "assessment-draft"
	KeyUsers            = "auth-users"
	KeyCurrentUser      = "auth-current-user"
	KeyCompletedReports = "reports-completed"
	KeyDraftReports     = "reports-drafts"
)

// Store is a string-keyed JSON blob store backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the store at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get unmarshals the value stored under key into v. It returns false
// when the key is absent. A stored value that fails to parse is
// logged, removed, and reported as absent so callers fall back to
// their defaults instead of failing on corrupted state.
func (s *Store) Get(key string, v any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &model.StorageError{Op: "get", Key: key, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn("discarding corrupted storage value", "key", key, "error", err)
		_ = s.Remove(key)
		return false, nil
	}
	return true, nil
}

// Set marshals v and upserts it under key.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &model.StorageError{Op: "marshal", Key: key, Err: err}
	}
	_, err = s.db.Exec(
		`INSERT INTO blobs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, string(raw), string(raw),
	)
	if err != nil {
		return &model.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes the value stored under key. Removing a missing key is
// not an error.
func (s *Store) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return &model.StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}
