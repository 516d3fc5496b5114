// Package types holds the row-level entity definitions shared by every ledger
// repository (spec.md §3, Data Model). Keeping these in one leaf package lets
// the project/task/stack/session/annotation/external repos and the facade
// depend on a single vocabulary without import cycles, the same role the
// teacher gives its own internal/types package.
package types

// Status is a task's lifecycle state. Closed, Cancelled and Deleted are
// terminal (spec.md §3, Lifecycles).
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
	StatusDeleted   Status = "deleted"
)

// Terminal reports whether the status excludes the task from further work
// (no new sessions, removed from any stack).
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled || s == StatusDeleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusCancelled, StatusDeleted:
		return true
	}
	return false
}

// Project is a named, optionally hierarchical (via dotted name) grouping of
// tasks. There are no parent pointers; admin.email implies admin is its
// parent only by name convention (spec.md §3).
type Project struct {
	ID         int64
	Name       string
	IsArchived bool
	CreatedTS  int64
	ModifiedTS int64
}

// Task is the central entity of the ledger.
type Task struct {
	ID          int64
	UUID        string
	Description string
	Status      Status
	ProjectID   *int64
	DueTS       *int64
	ScheduledTS *int64
	WaitTS      *int64
	AllocSecs   *int64
	Template    *string
	Respawn     *string
	ParentID    *int64
	UDAs        map[string]string
	CreatedTS   int64
	ModifiedTS  int64
	ActivityTS  int64
}

// Annotation is a timestamped free-form note attached to a task, optionally
// linked to the session during which it was written.
type Annotation struct {
	ID        int64
	TaskID    int64
	SessionID *int64
	Note      string
	EntryTS   int64
	CreatedTS int64
}

// External records that a task is blocked awaiting a reply from recipient.
// It is "open" (active) while ReturnedTS is nil.
type External struct {
	ID         int64
	TaskID     int64
	Recipient  string
	Request    *string
	SentTS     int64
	ReturnedTS *int64
	CreatedTS  int64
	ModifiedTS int64
}

func (e External) Active() bool { return e.ReturnedTS == nil }

// Stack is a named ordered work queue. Exactly one stack ("default") is used
// by the CLI surface today, but the model supports more by name.
type Stack struct {
	ID         int64
	Name       string
	CreatedTS  int64
	ModifiedTS int64
}

// StackItem is one task's position in a stack. Ordinal is 0-based and dense:
// for a stack with N items the set of ordinals is exactly {0..N-1}.
type StackItem struct {
	StackID int64
	TaskID  int64
	Ordinal int
	AddedTS int64
}

// Session is a timed work interval on a task. EndTS is nil while the session
// is open; at most one session in the whole store may be open at a time.
type Session struct {
	ID        int64
	TaskID    int64
	StartTS   int64
	EndTS     *int64
	CreatedTS int64
}

func (s Session) Open() bool { return s.EndTS == nil }

// Duration returns the session length in seconds, or (now-start) if open.
func (s Session) Duration(now int64) int64 {
	if s.EndTS == nil {
		return now - s.StartTS
	}
	return *s.EndTS - s.StartTS
}

// EventType enumerates the append-only task_events journal's event kinds
// (spec.md §3, §4.2).
type EventType string

const (
	EventCreated          EventType = "created"
	EventModified         EventType = "modified"
	EventStatusChanged    EventType = "status_changed"
	EventTagAdded         EventType = "tag_added"
	EventTagRemoved       EventType = "tag_removed"
	EventStackAdded       EventType = "stack_added"
	EventStackRemoved     EventType = "stack_removed"
	EventSessionStarted   EventType = "session_started"
	EventSessionClosed    EventType = "session_closed"
	EventAnnotationAdded  EventType = "annotation_added"
	EventAnnotationDelete EventType = "annotation_deleted"
	EventExternalAdded    EventType = "external_added"
	EventExternalReturned EventType = "external_returned"
)

// TaskEvent is one append-only journal row. Payload is the JSON-encoded,
// event-type-specific body described in spec.md §4.2.
type TaskEvent struct {
	ID        int64
	TaskID    int64
	TS        int64
	EventType EventType
	Payload   string
}

// Template stores the default attributes a new task inherits when created
// with template=<name> (spec.md §3).
type Template struct {
	Name       string
	Payload    string // JSON-encoded TemplatePayload
	CreatedTS  int64
	ModifiedTS int64
}

// TemplatePayload is the decoded form of Template.Payload.
type TemplatePayload struct {
	ProjectID   *int64            `json:"project_id,omitempty"`
	DueTS       *int64            `json:"due_ts,omitempty"`
	ScheduledTS *int64            `json:"scheduled_ts,omitempty"`
	WaitTS      *int64            `json:"wait_ts,omitempty"`
	AllocSecs   *int64            `json:"alloc_secs,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	UDAs        map[string]string `json:"udas,omitempty"`
}

// Stage is the derived kanban-style label computed by internal/stage from a
// task's (status, queue membership, session history, externals) tuple.
type Stage string

const (
	StageProposed   Stage = "proposed"
	StagePlanned    Stage = "planned"
	StageInProgress Stage = "in progress"
	StageSuspended  Stage = "suspended"
	StageActive     Stage = "active"
	StageExternal   Stage = "external"
	StageCompleted  Stage = "completed"
	StageCancelled  Stage = "cancelled"
	StageDeleted    Stage = "deleted"
)
