package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is written to PRAGMA user_version after migration. Opening
// a database from a newer release fails rather than guessing.
const schemaVersion = 1

// Store persists trace events in SQLite.
//
// The database is opened with WAL journaling, NORMAL synchronous mode, and a
// busy timeout; the pool is capped at one connection since SQLite serializes
// writers anyway.
type Store struct {
	db *sql.DB
}

// Open opens or creates a trace database at path. ":memory:" works for
// tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("trace: read schema version: %w", err)
	}
	switch {
	case version == schemaVersion:
		return nil
	case version > schemaVersion:
		return fmt.Errorf("trace: database schema version %d is newer than supported %d", version, schemaVersion)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("trace: apply schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("trace: set schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one event. Duplicate (run, seq) pairs are ignored, so
// replaying a run into the same store is harmless.
func (s *Store) Record(ctx context.Context, ev Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO events
			(run_id, seq, kind, lookup, before_form, after_form, before_hash, after_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Seq, ev.Kind, ev.Lookup, ev.Before, ev.After, ev.BeforeHash, ev.AfterHash)
	if err != nil {
		return fmt.Errorf("trace: record event %s/%d: %w", ev.RunID, ev.Seq, err)
	}
	return nil
}

// Events returns one run's events in sequence order.
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, kind, lookup, before_form, after_form, before_hash, after_hash
		FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("trace: query run %s: %w", runID, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.RunID, &ev.Seq, &ev.Kind, &ev.Lookup,
			&ev.Before, &ev.After, &ev.BeforeHash, &ev.AfterHash); err != nil {
			return nil, fmt.Errorf("trace: scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace: iterate run %s: %w", runID, err)
	}
	return events, nil
}

// Runs lists the stored run ids. UUIDv7 ids sort in creation order.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM events ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("trace: list runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("trace: scan run id: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace: iterate runs: %w", err)
	}
	return runs, nil
}
