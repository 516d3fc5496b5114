// Package event implements the append-only task event journal (spec.md §4.2).
// Every mutating repository method calls Record with a typed payload; no
// public function here ever updates or deletes a journal row.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
)

// Record appends one task_events row. The caller is responsible for running
// it inside the same transaction as the mutation it documents (spec.md §9,
// "micro-session rule as a transactional atom" generalizes to every event).
func Record(ctx context.Context, q store.Queryer, taskID int64, ts int64, typ types.EventType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event: marshal %s payload: %w", typ, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO task_events (task_id, ts, event_type, payload) VALUES (?, ?, ?, ?)`,
		taskID, ts, string(typ), string(body))
	if err != nil {
		return fmt.Errorf("event: record %s: %w", typ, err)
	}
	return nil
}

// Payload shapes, one per event type (spec.md §4.2).

type Created struct {
	Description string `json:"description"`
	ProjectID   *int64 `json:"project_id,omitempty"`
}

type Modified struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

type StatusChanged struct {
	OldStatus types.Status `json:"old_status"`
	NewStatus types.Status `json:"new_status"`
}

type TagAdded struct {
	Tag string `json:"tag"`
}

type TagRemoved struct {
	Tag string `json:"tag"`
}

type StackAdded struct {
	StackID int64 `json:"stack_id"`
	Ordinal int   `json:"ordinal"`
}

type StackRemoved struct {
	StackID int64 `json:"stack_id"`
}

type SessionStarted struct {
	SessionID int64  `json:"session_id"`
	StartTS   int64  `json:"start_ts"`
	EndTS     *int64 `json:"end_ts,omitempty"`
}

type SessionClosed struct {
	SessionID int64  `json:"session_id"`
	StartTS   int64  `json:"start_ts"`
	EndTS     *int64 `json:"end_ts,omitempty"`
}

type AnnotationAdded struct {
	AnnotationID int64  `json:"annotation_id"`
	SessionID    *int64 `json:"session_id,omitempty"`
}

type AnnotationDeleted struct {
	AnnotationID int64 `json:"annotation_id"`
}

type ExternalAdded struct {
	ExternalID int64  `json:"external_id"`
	Recipient  string `json:"recipient"`
}

type ExternalReturned struct {
	ExternalID int64 `json:"external_id"`
}

// List returns a task's journal, newest-first.
func List(ctx context.Context, q store.Queryer, taskID int64) ([]types.TaskEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, task_id, ts, event_type, payload FROM task_events WHERE task_id = ? ORDER BY ts DESC, id DESC`,
		taskID)
	if err != nil {
		return nil, fmt.Errorf("event: list: %w", err)
	}
	defer rows.Close()

	var out []types.TaskEvent
	for rows.Next() {
		var e types.TaskEvent
		var typ string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.TS, &typ, &e.Payload); err != nil {
			return nil, fmt.Errorf("event: scan: %w", err)
		}
		e.EventType = types.EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
