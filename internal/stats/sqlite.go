package stats

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultBatchSize is the number of pending increments buffered before
// they are flushed to the database.
const DefaultBatchSize = 32

// SQLite is a Counter persisted in a SQLite database. Increments are
// buffered and flushed in a single transaction; reads flush first so they
// always observe every prior increment.
type SQLite struct {
	db        *sql.DB
	path      string
	pending   map[string]int64
	npending  int
	batchSize int
	mu        sync.Mutex
}

// OpenSQLite opens (or creates) the counter database at path. Counters
// listed in defaults are inserted when they do not exist yet.
func OpenSQLite(path string, defaults map[string]int64) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := insertDefaults(db, defaults); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert defaults: %w", err)
	}

	return &SQLite{
		db:        db,
		path:      path,
		pending:   make(map[string]int64),
		batchSize: DefaultBatchSize,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS counters (
			name TEXT NOT NULL PRIMARY KEY,
			value INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func insertDefaults(db *sql.DB, defaults map[string]int64) error {
	if len(defaults) == 0 {
		return nil
	}

	stmt, err := db.Prepare("INSERT OR IGNORE INTO counters (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare default insert: %w", err)
	}
	defer stmt.Close()

	for name, value := range defaults {
		if _, err := stmt.Exec(name, value); err != nil {
			return fmt.Errorf("failed to insert default %q: %w", name, err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Increment adds delta to the named counter and returns the new value.
func (s *SQLite) Increment(ctx context.Context, name string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[name] += delta
	s.npending++
	if s.npending >= s.batchSize {
		if err := s.flushLocked(ctx); err != nil {
			return 0, err
		}
	}

	v, err := s.getLocked(ctx, name)
	if err != nil {
		return 0, err
	}
	return v + s.pending[name], nil
}

// Get returns the current value of a counter, 0 when it was never set.
func (s *SQLite) Get(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx); err != nil {
		return 0, err
	}
	return s.getLocked(ctx, name)
}

func (s *SQLite) getLocked(ctx context.Context, name string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, "SELECT value FROM counters WHERE name = ?", name).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %q: %w", name, err)
	}
	return v, nil
}

// Snapshot returns every counter.
func (s *SQLite) Snapshot(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM counters")
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var v int64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		out[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counters: %w", err)
	}
	return out, nil
}

// Flush writes buffered increments to the database.
func (s *SQLite) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// flushLocked must be called with the lock held.
func (s *SQLite) flushLocked(ctx context.Context) error {
	if s.npending == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO counters (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for name, delta := range s.pending {
		if _, err := stmt.ExecContext(ctx, name, delta); err != nil {
			return fmt.Errorf("failed to update counter %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	clear(s.pending)
	s.npending = 0
	return nil
}

// Close flushes pending increments and closes the database.
func (s *SQLite) Close() error {
	if err := s.Flush(context.Background()); err != nil {
		s.db.Close()
		return err
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
