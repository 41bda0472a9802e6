// Package state persists the small amount of cross-run state gigcal needs:
// the last run summary, the purge cursor, and the last-edit timestamp used
// by the debounce guard.
//
// State lives in an embedded SQLite database so daemon restarts and
// overlapping CLI invocations see the same values.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Well-known keys.
const (
	keyLastSummary = "last_run_summary"
	keyPurgeCursor = "purge_cursor"
	keyLastEdit    = "last_edit_unix_ms"
)

// Store is a durable key-value store over SQLite.
type Store struct {
	conn *sql.DB
}

// Open creates or opens the state database at path.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create state schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Get returns the value for key; ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write state key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.conn.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state key %s: %w", key, err)
	}
	return nil
}

// SetLastSummary overwrites the persisted run summary. Only the most
// recent run's summary is kept; this is a status blob, not a history.
func (s *Store) SetLastSummary(summary string) error {
	return s.Set(keyLastSummary, summary)
}

// LastSummary returns the most recent run summary, or "" when no run has
// completed yet.
func (s *Store) LastSummary() (string, error) {
	v, _, err := s.Get(keyLastSummary)
	return v, err
}

// SetPurgeCursor records how far a purge pass has progressed.
func (s *Store) SetPurgeCursor(offset int) error {
	return s.Set(keyPurgeCursor, strconv.Itoa(offset))
}

// PurgeCursor returns the resumable purge offset; ok is false when no
// purge is in progress.
func (s *Store) PurgeCursor() (offset int, ok bool, err error) {
	v, ok, err := s.Get(keyPurgeCursor)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt purge cursor %q: %w", v, err)
	}
	return n, true, nil
}

// ClearPurgeCursor removes the cursor after a purge pass completes.
func (s *Store) ClearPurgeCursor() error {
	return s.Delete(keyPurgeCursor)
}

// MarkEdit records when the sheet was last edited.
func (s *Store) MarkEdit(t time.Time) error {
	return s.Set(keyLastEdit, strconv.FormatInt(t.UnixMilli(), 10))
}

// LastEdit returns the most recent recorded edit time; ok is false when no
// edit has been recorded.
func (s *Store) LastEdit() (t time.Time, ok bool, err error) {
	v, ok, err := s.Get(keyLastEdit)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt edit timestamp %q: %w", v, err)
	}
	return time.UnixMilli(ms), true, nil
}
