package store

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func TestRunMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := InMemory(ctx)
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	defer s.Close()

	before, err := currentSchemaVersion(ctx, s.DB())
	if err != nil {
		t.Fatalf("currentSchemaVersion: %v", err)
	}
	if before != CurrentVersion {
		t.Fatalf("expected version %d after Open, got %d", CurrentVersion, before)
	}

	if err := RunMigrations(ctx, s.DB()); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	var rows int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_version`).Scan(&rows); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if rows != CurrentVersion {
		t.Fatalf("expected exactly %d schema_version rows, got %d", CurrentVersion, rows)
	}
}

// openAtVersion builds a fresh in-memory database and advances it only up to
// (and including) upTo, bypassing the one-shot Open path so tests can seed
// pre-migration-v5 data (with the old "recur" column) before letting
// RunMigrations carry it the rest of the way.
func openAtVersion(t *testing.T, upTo int) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := ensureSchemaVersionTable(ctx, db); err != nil {
		t.Fatalf("ensure schema_version: %v", err)
	}
	for _, m := range migrationsList {
		if m.Version > upTo {
			break
		}
		if err := runOneMigration(ctx, db, m); err != nil {
			t.Fatalf("migration %s: %v", m.Name, err)
		}
	}
	return db
}

func TestMigrationV5PreservesSessionsAndRenamesColumn(t *testing.T) {
	ctx := context.Background()
	db := openAtVersion(t, 4) // schema still has tasks.recur, recur_occurrences exists

	now := int64(1000)
	if _, err := db.ExecContext(ctx, `INSERT INTO tasks (uuid, description, status, recur, udas_json, created_ts, modified_ts, activity_ts)
		VALUES ('u1', 'demo', 'open', 'daily', '{}', ?, ?, ?)`, now, now, now); err != nil {
		t.Fatalf("insert task: %v", err)
	}
	var taskID int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM tasks WHERE uuid = 'u1'`).Scan(&taskID); err != nil {
		t.Fatalf("select task id: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO sessions (task_id, start_ts, end_ts, created_ts) VALUES (?, ?, ?, ?)`,
		taskID, now, now+10, now); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations to current: %v", err)
	}

	var respawn string
	if err := db.QueryRowContext(ctx, `SELECT respawn FROM tasks WHERE uuid = 'u1'`).Scan(&respawn); err != nil {
		t.Fatalf("expected respawn column populated from recur: %v", err)
	}
	if respawn != "daily" {
		t.Fatalf("expected respawn=daily (carried over from recur), got %q", respawn)
	}

	var sessionCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE task_id = ?`, taskID).Scan(&sessionCount); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessionCount != 1 {
		t.Fatalf("expected session to survive migration v5, got %d rows", sessionCount)
	}

	var recurOccurrences int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='recur_occurrences'`).Scan(&recurOccurrences)
	if err != nil {
		t.Fatalf("check recur_occurrences table: %v", err)
	}
	if recurOccurrences != 0 {
		t.Fatalf("expected recur_occurrences table to be dropped by migration v5")
	}
}
