package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentVersion is the schema version this binary expects. RunMigrations
// applies every migration with version > the store's recorded version, up to
// and including this one (spec.md §4.1).
const CurrentVersion = 6

// migration is one versioned, idempotent schema step.
type migration struct {
	Version             int
	Name                string
	DisablesForeignKeys bool // see RunMigrations: PRAGMA toggle happens outside the tx.
	Func                func(ctx context.Context, tx *sql.Tx) error
}

var migrationsList = []migration{
	{1, "initial_schema", false, migrateInitialSchema},
	{2, "task_annotations", false, migrateAnnotations},
	{3, "task_externals", false, migrateExternals},
	{4, "recur_occurrences", false, migrateRecurOccurrences},
	{5, "rename_recur_to_respawn", true, migrateRenameRecurToRespawn},
	{6, "templates", false, migrateTemplates},
}

func migrateInitialSchema(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaV1)
	return err
}

func migrateAnnotations(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaV2Annotations)
	return err
}

func migrateExternals(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaV3Externals)
	return err
}

func migrateRecurOccurrences(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaV4RecurOccurrences)
	return err
}

// migrateRenameRecurToRespawn rebuilds the tasks table to rename the
// "recur" column to "respawn", and drops the vestigial recur_occurrences
// table the reactive respawn engine supersedes (spec.md §9).
//
// SQLite's ALTER TABLE ... RENAME COLUMN is available, but this migration
// reproduces the spec's "migration v5 preserves sessions" contract exactly
// the way the teacher's table-rebuild migrations do (internal/storage/sqlite,
// migrations that copy-into-new-table): foreign keys are disabled by the
// caller (RunMigrations) before the transaction opens, so dropping the old
// tasks table does not cascade-delete sessions, task_tags, task_events,
// task_annotations, or task_externals that reference it.
func migrateRenameRecurToRespawn(ctx context.Context, tx *sql.Tx) error {
	var hasRespawn bool
	row := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('tasks') WHERE name = 'respawn'`)
	var n int
	if err := row.Scan(&n); err != nil {
		return fmt.Errorf("inspect tasks columns: %w", err)
	}
	hasRespawn = n > 0
	if hasRespawn {
		// Already migrated (idempotent re-run).
		_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS recur_occurrences`)
		return err
	}

	const rebuild = `
CREATE TABLE tasks_new (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'open',
    project_id  INTEGER REFERENCES projects(id),
    due_ts      INTEGER,
    scheduled_ts INTEGER,
    wait_ts     INTEGER,
    alloc_secs  INTEGER,
    template    TEXT,
    respawn     TEXT,
    parent_id   INTEGER REFERENCES tasks(id),
    udas_json   TEXT NOT NULL DEFAULT '{}',
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL,
    activity_ts INTEGER NOT NULL
);

INSERT INTO tasks_new (id, uuid, description, status, project_id, due_ts,
    scheduled_ts, wait_ts, alloc_secs, template, respawn, parent_id,
    udas_json, created_ts, modified_ts, activity_ts)
SELECT id, uuid, description, status, project_id, due_ts,
    scheduled_ts, wait_ts, alloc_secs, template, recur, parent_id,
    udas_json, created_ts, modified_ts, activity_ts
FROM tasks;

DROP TABLE tasks;
ALTER TABLE tasks_new RENAME TO tasks;

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_ts);

DROP TABLE IF EXISTS recur_occurrences;
`
	if _, err := tx.ExecContext(ctx, rebuild); err != nil {
		return fmt.Errorf("rebuild tasks table: %w", err)
	}
	return nil
}

func migrateTemplates(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaV6Templates)
	return err
}

func ensureSchemaVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	return err
}

func currentSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// RunMigrations applies every pending migration in order. Re-running it
// against a fully migrated store is a no-op (spec.md §8, invariant 6).
//
// Migrations that rebuild tables (and would otherwise cascade-delete
// referencing rows) disable foreign-key enforcement before their transaction
// begins and re-enable it after commit; SQLite forbids toggling PRAGMA
// foreign_keys while a transaction is active (spec.md §4.1).
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := ensureSchemaVersionTable(ctx, db); err != nil {
		return fmt.Errorf("ensure schema_version: %w", err)
	}
	current, err := currentSchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrationsList {
		if m.Version <= current {
			continue
		}

		if m.DisablesForeignKeys {
			if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
				return fmt.Errorf("migration %s: disable foreign keys: %w", m.Name, err)
			}
		}

		var beforeSessions int
		if m.DisablesForeignKeys {
			_ = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&beforeSessions)
		}

		if err := runOneMigration(ctx, db, m); err != nil {
			if m.DisablesForeignKeys {
				db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
			}
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}

		if m.DisablesForeignKeys {
			var afterSessions int
			_ = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&afterSessions)
			if afterSessions != beforeSessions {
				db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
				return fmt.Errorf("migration %s: session row count changed (%d -> %d), refusing to proceed",
					m.Name, beforeSessions, afterSessions)
			}
			if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
				return fmt.Errorf("migration %s: re-enable foreign keys: %w", m.Name, err)
			}
		}
	}
	return nil
}

func runOneMigration(ctx context.Context, db *sql.DB, m migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = m.Func(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
		tx.Rollback()
		return fmt.Errorf("record version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
