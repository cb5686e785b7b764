// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     history
// Description: Dictation history persistence (SQLite)
// License:     MIT
// ============================================================================

package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one finished dictation
type Entry struct {
	ID        int64
	SessionID string
	Text      string

	// Mode is "dictation" or "command"
	Mode string

	// AudioDuration is the length of the recorded clip
	AudioDuration time.Duration

	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS dictations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	text           TEXT NOT NULL,
	mode           TEXT NOT NULL,
	audio_ms       INTEGER NOT NULL,
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_dictations_created ON dictations(created_at);
`

// Store persists dictation entries to a local SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add appends an entry. CreatedAt defaults to now when unset.
func (s *Store) Add(e Entry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO dictations (session_id, text, mode, audio_ms, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Text, e.Mode, e.AudioDuration.Milliseconds(), created,
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, text, mode, audio_ms, created_at
		 FROM dictations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Search returns entries whose text contains term, newest first
func (s *Store) Search(term string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, text, mode, audio_ms, created_at
		 FROM dictations WHERE text LIKE ? ORDER BY id DESC LIMIT ?`,
		"%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Text, &e.Mode, &ms, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.AudioDuration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the retention window
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM dictations WHERE created_at < ?`,
		time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
