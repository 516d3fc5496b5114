// Package store opens tatl's embedded relational store and owns the
// migration engine described in spec.md §4.1 and §6.3. It is the only
// package that imports a SQL driver; every repository above it talks to a
// Queryer so unit tests can swap in a plain *sql.DB, a *sql.Tx, or (for the
// fast in-memory suite) sqlite's own ":memory:" mode.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofrs/flock"
)

// Queryer is the subset of *sql.DB / *sql.Tx every repository needs. Keeping
// repositories coded against this interface rather than *sql.DB lets a
// single command transaction (spec.md §5) be threaded through every repo
// call without each repo caring whether it's mid-transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle. For file-backed stores, Open holds an
// advisory lock only while it opens and migrates the database, to serialize
// first-open/migration across processes.
type Store struct {
	db   *sql.DB
	path string
}

// InMemory opens a non-persistent store, used by the fast unit test suite
// (spec.md §4.1: "for in-memory test runs it is non-persistent").
func InMemory(ctx context.Context) (*Store, error) {
	return open(ctx, "file::memory:?cache=shared", "")
}

// Open opens (creating if necessary) the file-backed store at path, taking
// an advisory lock for the duration of migration so two processes racing to
// create the same fresh database file don't both attempt schema creation.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".tatl.lock"))
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("store: acquire startup lock: %w", err)
	}
	if locked {
		defer lock.Unlock()
	}

	return open(ctx, path, path)
}

func open(ctx context.Context, dsn, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite writers serialize anyway; avoids busy-handler churn.

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// DB returns the underlying handle, for callers (migrations, diagnostics)
// that need it directly. Repositories should prefer Queryer.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the store's file path ("" for in-memory stores).
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a single transaction scoped to one command
// (spec.md §5: "every command is wrapped in a single store transaction").
// fn's error rolls the transaction back; a panic inside fn is re-raised
// after rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
