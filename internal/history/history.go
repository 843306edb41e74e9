// Package history records one row per fancyjob run in a local SQLite
// database. History is strictly best-effort: a broken database must never
// block a counter update.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Run kinds.
const (
	KindUpdate     = "update"
	KindReschedule = "reschedule"
)

// Run is one recorded invocation.
type Run struct {
	ID        int64
	Kind      string
	Counter   int    // new counter value, updates only
	RunCount  int    // drawn run count, reschedules only
	Message   string // commit message, updates only
	Pushed    bool
	Error     string
	CreatedAt time.Time
}

// Store persists runs.
type Store struct {
	db *sql.DB
}

const defaultBusyTimeout = 5000 // ms

// Open opens (creating if needed) the database at path. The database uses
// WAL mode, a 5 s busy timeout, and a single connection (SQLite serialises
// writes). The schema is migrated automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	pushed := 0
	if run.Pushed {
		pushed = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (kind, counter, run_count, message, pushed, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.Kind, run.Counter, run.RunCount, run.Message, pushed, run.Error,
	)
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

// Recent returns the n most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, counter, run_count, message, pushed, error, created_at
		FROM runs
		ORDER BY id DESC
		LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			pushed    int
			createdAt string
		)
		if err := rows.Scan(&run.ID, &run.Kind, &run.Counter, &run.RunCount,
			&run.Message, &pushed, &run.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		run.Pushed = pushed != 0
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}

	return runs, nil
}
