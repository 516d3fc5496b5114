// Package external implements "waiting on someone else" records: a task can
// be blocked awaiting a reply from a recipient; it is active while
// returned_ts is nil (spec.md §3, §4.9 "external" predicate).
package external

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

var ErrNotFound = errors.New("external: not found")

type Repo struct {
	Q     store.Queryer
	Clock clock.Clock
}

func New(q store.Queryer, c clock.Clock) *Repo {
	return &Repo{Q: q, Clock: c}
}

// Add opens an external wait on taskID for recipient, sent at sentTS.
func (r *Repo) Add(ctx context.Context, taskID int64, recipient string, request *string, sentTS int64) (*types.External, error) {
	if recipient == "" {
		return nil, fmt.Errorf("external: recipient must not be empty")
	}
	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx, `
		INSERT INTO task_externals (task_id, recipient, request, sent_ts, returned_ts, created_ts, modified_ts)
		VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		taskID, recipient, request, sentTS, now, now)
	if err != nil {
		return nil, fmt.Errorf("external: add: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("external: add: %w", err)
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventExternalAdded, event.ExternalAdded{ExternalID: id, Recipient: recipient}); err != nil {
		return nil, err
	}
	return &types.External{ID: id, TaskID: taskID, Recipient: recipient, Request: request, SentTS: sentTS, CreatedTS: now, ModifiedTS: now}, nil
}

const selectCols = `id, task_id, recipient, request, sent_ts, returned_ts, created_ts, modified_ts`

func scan(row interface{ Scan(...any) error }) (*types.External, error) {
	var e types.External
	if err := row.Scan(&e.ID, &e.TaskID, &e.Recipient, &e.Request, &e.SentTS, &e.ReturnedTS, &e.CreatedTS, &e.ModifiedTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("external: scan: %w", err)
	}
	return &e, nil
}

// GetByTask returns a task's externals, newest-first.
func (r *Repo) GetByTask(ctx context.Context, taskID int64) ([]types.External, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectCols+` FROM task_externals WHERE task_id = ? ORDER BY sent_ts DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("external: get by task: %w", err)
	}
	defer rows.Close()
	var out []types.External
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetActiveForTask returns a task's currently-open externals (returned_ts IS NULL).
func (r *Repo) GetActiveForTask(ctx context.Context, taskID int64) ([]types.External, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectCols+` FROM task_externals WHERE task_id = ? AND returned_ts IS NULL ORDER BY sent_ts DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("external: get active: %w", err)
	}
	defer rows.Close()
	var out []types.External
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Return marks an external as answered at returnedTS.
func (r *Repo) Return(ctx context.Context, externalID int64, returnedTS int64) (*types.External, error) {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM task_externals WHERE id = ?`, externalID)
	e, err := scan(row)
	if err != nil {
		return nil, err
	}
	if !e.Active() {
		return nil, fmt.Errorf("external: %d already returned", externalID)
	}
	now := r.Clock.Now()
	if _, err := r.Q.ExecContext(ctx, `UPDATE task_externals SET returned_ts = ?, modified_ts = ? WHERE id = ?`, returnedTS, now, externalID); err != nil {
		return nil, fmt.Errorf("external: return: %w", err)
	}
	e.ReturnedTS = &returnedTS
	e.ModifiedTS = now
	if err := event.Record(ctx, r.Q, e.TaskID, now, types.EventExternalReturned, event.ExternalReturned{ExternalID: externalID}); err != nil {
		return nil, err
	}
	return e, nil
}
