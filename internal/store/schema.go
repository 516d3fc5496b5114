package store

// schemaV1 creates the foundational tables (spec.md §3, §6.3). It uses the
// teacher's CREATE TABLE IF NOT EXISTS idiom (internal/storage/sqlite/schema.go)
// so re-running it against an already-migrated database is a no-op.
//
// Note the tasks.recur column: the original on-disk name before migration v5
// renamed it to "respawn" (see migrations.go migrateRenameRecurToRespawn).
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS projects (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    is_archived INTEGER NOT NULL DEFAULT 0,
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
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
    recur       TEXT,
    parent_id   INTEGER REFERENCES tasks(id),
    udas_json   TEXT NOT NULL DEFAULT '{}',
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL,
    activity_ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_ts);

CREATE TABLE IF NOT EXISTS task_tags (
    task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    tag     TEXT NOT NULL,
    PRIMARY KEY (task_id, tag)
);

CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag);

CREATE TABLE IF NOT EXISTS task_events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    ts         INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    payload    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_task_events_task_ts ON task_events(task_id, ts);
CREATE INDEX IF NOT EXISTS idx_task_events_type ON task_events(event_type);

CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    start_ts   INTEGER NOT NULL,
    end_ts     INTEGER,
    created_ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id);
-- Enforces "at most one open session across the entire table" (spec.md §3, §4.6).
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open ON sessions(end_ts) WHERE end_ts IS NULL;

CREATE TABLE IF NOT EXISTS stacks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL UNIQUE,
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stack_items (
    stack_id INTEGER NOT NULL REFERENCES stacks(id) ON DELETE CASCADE,
    task_id  INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    ordinal  INTEGER NOT NULL,
    added_ts INTEGER NOT NULL,
    PRIMARY KEY (stack_id, task_id),
    UNIQUE (stack_id, ordinal)
);
`

const schemaV2Annotations = `
CREATE TABLE IF NOT EXISTS task_annotations (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    session_id INTEGER REFERENCES sessions(id) ON DELETE SET NULL,
    note       TEXT NOT NULL,
    entry_ts   INTEGER NOT NULL,
    created_ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_annotations_task ON task_annotations(task_id);
`

const schemaV3Externals = `
CREATE TABLE IF NOT EXISTS task_externals (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id     INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    recipient   TEXT NOT NULL,
    request     TEXT,
    sent_ts     INTEGER NOT NULL,
    returned_ts INTEGER,
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_externals_task ON task_externals(task_id);
CREATE INDEX IF NOT EXISTS idx_task_externals_open ON task_externals(task_id) WHERE returned_ts IS NULL;
`

// schemaV4RecurOccurrences is the vestigial pre-generation design mentioned in
// spec.md §9 ("An older pre-generation design is present in the source in
// vestigial form"). It is created here for historical fidelity and dropped by
// migration v5, which supersedes it with the purely reactive respawn engine.
const schemaV4RecurOccurrences = `
CREATE TABLE IF NOT EXISTS recur_occurrences (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id    INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    due_ts     INTEGER NOT NULL,
    generated  INTEGER NOT NULL DEFAULT 0,
    created_ts INTEGER NOT NULL
);
`

const schemaV6Templates = `
CREATE TABLE IF NOT EXISTS templates (
    name        TEXT PRIMARY KEY,
    payload     TEXT NOT NULL DEFAULT '{}',
    created_ts  INTEGER NOT NULL,
    modified_ts INTEGER NOT NULL
);
`
