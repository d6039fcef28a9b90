// Package sqlite implements the fact store on a single local SQLite file.
//
// Transactions open with BEGIN IMMEDIATE so the write lock is taken up
// front; a check performed inside an Update (such as "no open session
// exists") therefore holds through commit without any in-process locking.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tock/internal/domain/task"
	"tock/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    description     TEXT NOT NULL,
    project         TEXT NOT NULL DEFAULT '',
    tags            TEXT NOT NULL DEFAULT '',
    due_ns          INTEGER,
    scheduled_ns    INTEGER,
    wait_ns         INTEGER,
    allocation_secs INTEGER NOT NULL DEFAULT 0,
    lifecycle       TEXT NOT NULL DEFAULT 'open',
    queue_pos       INTEGER,
    created_ns      INTEGER NOT NULL,
    updated_ns      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id  INTEGER NOT NULL REFERENCES tasks(id),
    start_ns INTEGER NOT NULL,
    end_ns   INTEGER
);

CREATE TABLE IF NOT EXISTS external (
    task_id   INTEGER PRIMARY KEY REFERENCES tasks(id),
    recipient TEXT NOT NULL,
    note      TEXT NOT NULL DEFAULT '',
    sent_ns   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    INTEGER NOT NULL REFERENCES tasks(id),
    session_id INTEGER,
    at_ns      INTEGER NOT NULL,
    body       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_queue_pos
    ON tasks(queue_pos) WHERE queue_pos IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id);
CREATE INDEX IF NOT EXISTS idx_sessions_end ON sessions(end_ns);
`

// Store is the SQLite-backed fact store.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the database at path and returns a store.
func Open(path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, task.WrapStore("resolve home dir", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, task.WrapStore("create data dir", err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on",
		path,
	)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, task.WrapStore("open database", err)
	}
	// A single connection keeps the single-writer discipline trivial.
	db.SetMaxOpenConns(1)

	return &Store{
		db:     db,
		logger: logging.NewComponentLogger("FactStore"),
	}, nil
}

// EnsureSchema creates the fact tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return task.WrapStore("ensure schema", err)
	}
	return nil
}

// Update runs fn inside one writable transaction, committing only when fn
// returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx task.Tx) error) error {
	return s.run(ctx, fn, false)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx task.Tx) error) error {
	return s.run(ctx, fn, true)
}

func (s *Store) run(ctx context.Context, fn func(tx task.Tx) error, readOnly bool) error {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return task.WrapStore("begin transaction", err)
	}

	if err := fn(&sqliteTx{tx: dbTx}); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			s.logger.Error("rollback failed: %v (after: %v)", rbErr, err)
		}
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return task.WrapStore("commit transaction", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return task.WrapStore("close database", err)
	}
	return nil
}
