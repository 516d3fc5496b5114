// Package annotation implements timestamped free-form notes attached to
// tasks, optionally linked to the session active when they were written.
package annotation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/event"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
)

var ErrNotFound = errors.New("annotation: not found")

type Repo struct {
	Q     store.Queryer
	Clock clock.Clock
}

func New(q store.Queryer, c clock.Clock) *Repo {
	return &Repo{Q: q, Clock: c}
}

// Add records a note on taskID, entered at entryTS (the time the note
// describes, which may differ from "now" when back-annotating), optionally
// linked to sessionID.
func (r *Repo) Add(ctx context.Context, taskID int64, note string, entryTS int64, sessionID *int64) (*types.Annotation, error) {
	if note == "" {
		return nil, fmt.Errorf("annotation: note must not be empty")
	}
	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx, `
		INSERT INTO task_annotations (task_id, session_id, note, entry_ts, created_ts)
		VALUES (?, ?, ?, ?, ?)`,
		taskID, sessionID, note, entryTS, now)
	if err != nil {
		return nil, fmt.Errorf("annotation: add: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("annotation: add: %w", err)
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventAnnotationAdded, event.AnnotationAdded{AnnotationID: id, SessionID: sessionID}); err != nil {
		return nil, err
	}
	return &types.Annotation{ID: id, TaskID: taskID, SessionID: sessionID, Note: note, EntryTS: entryTS, CreatedTS: now}, nil
}

const selectCols = `id, task_id, session_id, note, entry_ts, created_ts`

func scan(row interface{ Scan(...any) error }) (*types.Annotation, error) {
	var a types.Annotation
	if err := row.Scan(&a.ID, &a.TaskID, &a.SessionID, &a.Note, &a.EntryTS, &a.CreatedTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("annotation: scan: %w", err)
	}
	return &a, nil
}

// GetByTask returns a task's annotations ordered by entry time.
func (r *Repo) GetByTask(ctx context.Context, taskID int64) ([]types.Annotation, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectCols+` FROM task_annotations WHERE task_id = ? ORDER BY entry_ts ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("annotation: get by task: %w", err)
	}
	defer rows.Close()
	var out []types.Annotation
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes an annotation.
func (r *Repo) Delete(ctx context.Context, annotationID int64) error {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM task_annotations WHERE id = ?`, annotationID)
	a, err := scan(row)
	if err != nil {
		return err
	}
	if _, err := r.Q.ExecContext(ctx, `DELETE FROM task_annotations WHERE id = ?`, annotationID); err != nil {
		return fmt.Errorf("annotation: delete: %w", err)
	}
	return event.Record(ctx, r.Q, a.TaskID, r.Clock.Now(), types.EventAnnotationDelete, event.AnnotationDeleted{AnnotationID: annotationID})
}
