// Package history persists validation decisions in a SQLite database so
// operators can review what the proxy approved and rejected. The decision
// path itself never reads from here — validation stays a pure function of
// its inputs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Decision is one recorded validation outcome.
type Decision struct {
	ID         string
	Timestamp  time.Time
	UserPrompt string
	Action     string
	UserIntent string
	Approved   bool
	Reason     string
}

// Store is a SQLite-backed decision history.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS decisions (
	id          TEXT PRIMARY KEY,
	ts          TEXT NOT NULL,
	user_prompt TEXT NOT NULL,
	action      TEXT NOT NULL,
	user_intent TEXT NOT NULL,
	approved    INTEGER NOT NULL,
	reason      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts);`

// Open opens (or creates) a decision history database at path.
// ":memory:" opens an in-memory database for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts a decision. A missing ID gets a fresh UUID; a zero
// timestamp gets the current UTC time.
func (s *Store) Record(ctx context.Context, d *Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decisions (id, ts, user_prompt, action, user_intent, approved, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.Timestamp.Format(time.RFC3339),
		d.UserPrompt,
		d.Action,
		d.UserIntent,
		boolToInt(d.Approved),
		d.Reason,
	)
	if err != nil {
		return fmt.Errorf("history: insert decision: %w", err)
	}
	return nil
}

// Recent returns up to limit decisions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Decision, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, user_prompt, action, user_intent, approved, reason
		 FROM decisions ORDER BY ts DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query decisions: %w", err)
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		var (
			d        Decision
			ts       string
			approved int
		)
		if err := rows.Scan(&d.ID, &ts, &d.UserPrompt, &d.Action, &d.UserIntent, &approved, &d.Reason); err != nil {
			return nil, fmt.Errorf("history: scan decision: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			d.Timestamp = t
		}
		d.Approved = approved != 0
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
