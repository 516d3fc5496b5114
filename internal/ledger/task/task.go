// Package task implements the task repository (spec.md §4.4): CRUD,
// field-diff modify, tag/UDA add-remove, close/cancel (with respawn),
// delete, and the plain reads other components build queries on top of.
package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/event"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/respawn/rule"
	"github.com/da11an/tatl/internal/store"
	"github.com/da11an/tatl/internal/validation"
)

var ErrNotFound = errors.New("task: not found")

// Respawner is implemented by the respawn engine. It is an interface here
// (rather than a direct import of internal/respawn) so the task package
// doesn't depend on the package that depends on it — the ledger facade
// wires the concrete engine in at construction time.
type Respawner interface {
	Spawn(ctx context.Context, q store.Queryer, original *types.Task, terminatedAt int64) error
}

type Repo struct {
	Q         store.Queryer
	Clock     clock.Clock
	Respawner Respawner // may be nil: Close/Cancel then just transition status
}

func New(q store.Queryer, c clock.Clock, r Respawner) *Repo {
	return &Repo{Q: q, Clock: c, Respawner: r}
}

// CreateFullParams carries the full attribute set for a new task.
type CreateFullParams struct {
	Description string
	ProjectID   *int64
	DueTS       *int64
	ScheduledTS *int64
	WaitTS      *int64
	AllocSecs   *int64
	Template    *string
	Respawn     *string
	ParentID    *int64
	UDAs        map[string]string
	Tags        []string
}

// CreateFull inserts a task with its full attribute set, tags and UDAs,
// records `created` plus one `tag_added` per tag, and returns the row with
// its assigned id and UUID (spec.md §4.4).
func (r *Repo) CreateFull(ctx context.Context, p CreateFullParams) (*types.Task, error) {
	if err := validation.Description(p.Description); err != nil {
		return nil, err
	}
	for _, tag := range p.Tags {
		if err := validation.Tag(tag); err != nil {
			return nil, err
		}
	}
	for k := range p.UDAs {
		if err := validation.UDAKey(k); err != nil {
			return nil, err
		}
	}
	if p.Respawn != nil && *p.Respawn != "" && !rule.Valid(*p.Respawn) {
		return nil, fmt.Errorf("task: invalid respawn rule %q", *p.Respawn)
	}

	now := r.Clock.Now()
	udas := p.UDAs
	if udas == nil {
		udas = map[string]string{}
	}
	udasJSON, err := json.Marshal(udas)
	if err != nil {
		return nil, fmt.Errorf("task: marshal udas: %w", err)
	}
	id := uuid.NewString()

	res, err := r.Q.ExecContext(ctx, `
		INSERT INTO tasks (uuid, description, status, project_id, due_ts, scheduled_ts,
			wait_ts, alloc_secs, template, respawn, parent_id, udas_json,
			created_ts, modified_ts, activity_ts)
		VALUES (?, ?, 'open', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Description, p.ProjectID, p.DueTS, p.ScheduledTS, p.WaitTS, p.AllocSecs,
		p.Template, p.Respawn, p.ParentID, string(udasJSON), now, now, now)
	if err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}
	taskID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task: create: %w", err)
	}

	if err := event.Record(ctx, r.Q, taskID, now, types.EventCreated, event.Created{
		Description: p.Description, ProjectID: p.ProjectID,
	}); err != nil {
		return nil, err
	}

	for _, tag := range p.Tags {
		if _, err := r.Q.ExecContext(ctx, `INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`, taskID, tag); err != nil {
			return nil, fmt.Errorf("task: insert tag: %w", err)
		}
		if err := event.Record(ctx, r.Q, taskID, now, types.EventTagAdded, event.TagAdded{Tag: tag}); err != nil {
			return nil, err
		}
	}

	return &types.Task{
		ID: taskID, UUID: id, Description: p.Description, Status: types.StatusOpen,
		ProjectID: p.ProjectID, DueTS: p.DueTS, ScheduledTS: p.ScheduledTS, WaitTS: p.WaitTS,
		AllocSecs: p.AllocSecs, Template: p.Template, Respawn: p.Respawn, ParentID: p.ParentID,
		UDAs: udas, CreatedTS: now, ModifiedTS: now, ActivityTS: now,
	}, nil
}

const selectTaskCols = `id, uuid, description, status, project_id, due_ts, scheduled_ts,
	wait_ts, alloc_secs, template, respawn, parent_id, udas_json, created_ts, modified_ts, activity_ts`

func scanTask(row interface{ Scan(...any) error }) (*types.Task, error) {
	var t types.Task
	var status, udasJSON string
	if err := row.Scan(&t.ID, &t.UUID, &t.Description, &status, &t.ProjectID, &t.DueTS,
		&t.ScheduledTS, &t.WaitTS, &t.AllocSecs, &t.Template, &t.Respawn, &t.ParentID,
		&udasJSON, &t.CreatedTS, &t.ModifiedTS, &t.ActivityTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("task: scan: %w", err)
	}
	t.Status = types.Status(status)
	t.UDAs = map[string]string{}
	if udasJSON != "" {
		if err := json.Unmarshal([]byte(udasJSON), &t.UDAs); err != nil {
			return nil, fmt.Errorf("task: unmarshal udas: %w", err)
		}
	}
	return &t, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*types.Task, error) {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectTaskCols+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListAll returns every non-deleted task.
func (r *Repo) ListAll(ctx context.Context) ([]types.Task, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectTaskCols+` FROM tasks WHERE status != ? ORDER BY id ASC`, string(types.StatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]types.Task, error) {
	var out []types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetByIDs returns the tasks matching the given ids, in no particular order.
func (r *Repo) GetByIDs(ctx context.Context, ids []int64) ([]types.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}
	query := `SELECT ` + selectTaskCols + ` FROM tasks WHERE id IN (` + string(placeholders) + `)`
	rows, err := r.Q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("task: get by ids: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// GetTags returns a task's tags, sorted.
func (r *Repo) GetTags(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("task: get tags: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// ModifyParams carries the three-valued Opt fields Modify may change, plus
// the tag/UDA add-remove sets (spec.md §4.4, §9).
type ModifyParams struct {
	Description Opt[string]
	ProjectID   Opt[int64]
	DueTS       Opt[int64]
	ScheduledTS Opt[int64]
	WaitTS      Opt[int64]
	AllocSecs   Opt[int64]
	Template    Opt[string]
	Respawn     Opt[string]
	ParentID    Opt[int64]

	TagsToAdd    []string
	TagsToRemove []string
	UDAsToSet    map[string]string
	UDAsToRemove []string
}

// Modify applies a field diff to a task, recording one event.Modified per
// effectively-changed field plus one tag_added/tag_removed per tag touched.
// Fields left at NoChange are untouched; Clear resets them to nil/zero.
func (r *Repo) Modify(ctx context.Context, taskID int64, p ModifyParams) (*types.Task, error) {
	t, err := r.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, fmt.Errorf("task: cannot modify terminal task %d", taskID)
	}

	now := r.Clock.Now()
	changed := false

	if p.Description.IsSet() {
		nv := p.Description.Value()
		if err := validation.Description(nv); err != nil {
			return nil, err
		}
		if nv != t.Description {
			if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: "description", Old: t.Description, New: nv}); err != nil {
				return nil, err
			}
			t.Description = nv
			changed = true
		}
	}

	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "project_id", p.ProjectID, &t.ProjectID); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}
	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "due_ts", p.DueTS, &t.DueTS); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}
	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "scheduled_ts", p.ScheduledTS, &t.ScheduledTS); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}
	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "wait_ts", p.WaitTS, &t.WaitTS); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}
	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "alloc_secs", p.AllocSecs, &t.AllocSecs); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}
	if changed2, err := applyInt64Opt(ctx, r, taskID, now, "parent_id", p.ParentID, &t.ParentID); err != nil {
		return nil, err
	} else if changed2 {
		changed = true
	}

	if p.Template.IsSet() || p.Template.IsClear() {
		var nv *string
		if p.Template.IsSet() {
			v := p.Template.Value()
			nv = &v
		}
		if !strPtrEqual(nv, t.Template) {
			if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: "template", Old: t.Template, New: nv}); err != nil {
				return nil, err
			}
			t.Template = nv
			changed = true
		}
	}

	if p.Respawn.IsSet() || p.Respawn.IsClear() {
		var nv *string
		if p.Respawn.IsSet() {
			v := p.Respawn.Value()
			if v != "" && !rule.Valid(v) {
				return nil, fmt.Errorf("task: invalid respawn rule %q", v)
			}
			nv = &v
		}
		if !strPtrEqual(nv, t.Respawn) {
			if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: "respawn", Old: t.Respawn, New: nv}); err != nil {
				return nil, err
			}
			t.Respawn = nv
			changed = true
		}
	}

	for _, tag := range p.TagsToAdd {
		if err := validation.Tag(tag); err != nil {
			return nil, err
		}
		res, err := r.Q.ExecContext(ctx, `INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`, taskID, tag)
		if err != nil {
			return nil, fmt.Errorf("task: add tag: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if err := event.Record(ctx, r.Q, taskID, now, types.EventTagAdded, event.TagAdded{Tag: tag}); err != nil {
				return nil, err
			}
			changed = true
		}
	}
	for _, tag := range p.TagsToRemove {
		res, err := r.Q.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ? AND tag = ?`, taskID, tag)
		if err != nil {
			return nil, fmt.Errorf("task: remove tag: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if err := event.Record(ctx, r.Q, taskID, now, types.EventTagRemoved, event.TagRemoved{Tag: tag}); err != nil {
				return nil, err
			}
			changed = true
		}
	}

	if len(p.UDAsToSet) > 0 || len(p.UDAsToRemove) > 0 {
		for k := range p.UDAsToSet {
			if err := validation.UDAKey(k); err != nil {
				return nil, err
			}
		}
		if t.UDAs == nil {
			t.UDAs = map[string]string{}
		}
		for k, v := range p.UDAsToSet {
			if old, ok := t.UDAs[k]; !ok || old != v {
				if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: "uda:" + k, Old: old, New: v}); err != nil {
					return nil, err
				}
				t.UDAs[k] = v
				changed = true
			}
		}
		for _, k := range p.UDAsToRemove {
			if old, ok := t.UDAs[k]; ok {
				delete(t.UDAs, k)
				if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: "uda:" + k, Old: old, New: nil}); err != nil {
					return nil, err
				}
				changed = true
			}
		}
		udasJSON, err := json.Marshal(t.UDAs)
		if err != nil {
			return nil, fmt.Errorf("task: marshal udas: %w", err)
		}
		if _, err := r.Q.ExecContext(ctx, `UPDATE tasks SET udas_json = ? WHERE id = ?`, string(udasJSON), taskID); err != nil {
			return nil, fmt.Errorf("task: update udas: %w", err)
		}
	}

	if !changed {
		return t, nil
	}

	t.ModifiedTS = now
	t.ActivityTS = now
	_, err = r.Q.ExecContext(ctx, `
		UPDATE tasks SET description = ?, project_id = ?, due_ts = ?, scheduled_ts = ?,
			wait_ts = ?, alloc_secs = ?, template = ?, respawn = ?, parent_id = ?,
			modified_ts = ?, activity_ts = ?
		WHERE id = ?`,
		t.Description, t.ProjectID, t.DueTS, t.ScheduledTS, t.WaitTS, t.AllocSecs,
		t.Template, t.Respawn, t.ParentID, t.ModifiedTS, t.ActivityTS, taskID)
	if err != nil {
		return nil, fmt.Errorf("task: modify: %w", err)
	}
	return t, nil
}

func applyInt64Opt(ctx context.Context, r *Repo, taskID, now int64, field string, o Opt[int64], cur **int64) (bool, error) {
	if o.IsNoChange() {
		return false, nil
	}
	var nv *int64
	if o.IsSet() {
		v := o.Value()
		nv = &v
	}
	if int64PtrEqual(nv, *cur) {
		return false, nil
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventModified, event.Modified{Field: field, Old: *cur, New: nv}); err != nil {
		return false, err
	}
	*cur = nv
	return true, nil
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// transitionStatus moves a task to a terminal status, records status_changed,
// removes it from any stack it occupies, and — if a respawn rule is set and
// r.Respawner is wired — asks the engine to spawn the successor task. Both
// closing and cancelling a respawning task trigger the next occurrence
// (spec.md §4.8: "When a task with respawn is closed or cancelled").
func (r *Repo) transitionStatus(ctx context.Context, taskID int64, newStatus types.Status) (*types.Task, error) {
	t, err := r.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return nil, fmt.Errorf("task: %d is already %s", taskID, t.Status)
	}

	now := r.Clock.Now()
	old := t.Status
	if _, err := r.Q.ExecContext(ctx, `UPDATE tasks SET status = ?, modified_ts = ?, activity_ts = ? WHERE id = ?`,
		string(newStatus), now, now, taskID); err != nil {
		return nil, fmt.Errorf("task: transition status: %w", err)
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventStatusChanged, event.StatusChanged{OldStatus: old, NewStatus: newStatus}); err != nil {
		return nil, err
	}

	if _, err := r.Q.ExecContext(ctx, `DELETE FROM stack_items WHERE task_id = ?`, taskID); err != nil {
		return nil, fmt.Errorf("task: remove from stacks: %w", err)
	}

	t.Status = newStatus
	t.ModifiedTS = now
	t.ActivityTS = now

	if t.Respawn != nil && *t.Respawn != "" && r.Respawner != nil {
		if err := r.Respawner.Spawn(ctx, r.Q, t, now); err != nil {
			return nil, fmt.Errorf("task: respawn: %w", err)
		}
	}

	return t, nil
}

// Close marks a task closed (spec.md §4.4).
func (r *Repo) Close(ctx context.Context, taskID int64) (*types.Task, error) {
	return r.transitionStatus(ctx, taskID, types.StatusClosed)
}

// Cancel marks a task cancelled.
func (r *Repo) Cancel(ctx context.Context, taskID int64) (*types.Task, error) {
	return r.transitionStatus(ctx, taskID, types.StatusCancelled)
}

// Reopen moves a closed or cancelled task back to open, recording
// status_changed. It never re-inserts the task into a stack and never
// triggers respawn — only the closing/cancelling transition does that
// (spec.md §6.1 "reopen").
func (r *Repo) Reopen(ctx context.Context, taskID int64) (*types.Task, error) {
	t, err := r.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case types.StatusClosed, types.StatusCancelled:
	default:
		return nil, fmt.Errorf("task: %d is not closed or cancelled", taskID)
	}

	now := r.Clock.Now()
	old := t.Status
	if _, err := r.Q.ExecContext(ctx, `UPDATE tasks SET status = ?, modified_ts = ?, activity_ts = ? WHERE id = ?`,
		string(types.StatusOpen), now, now, taskID); err != nil {
		return nil, fmt.Errorf("task: reopen: %w", err)
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventStatusChanged, event.StatusChanged{OldStatus: old, NewStatus: types.StatusOpen}); err != nil {
		return nil, err
	}

	t.Status = types.StatusOpen
	t.ModifiedTS = now
	t.ActivityTS = now
	return t, nil
}

// Delete hard-deletes a task; FK ON DELETE CASCADE removes its tags, events,
// annotations, externals and stack entries.
func (r *Repo) Delete(ctx context.Context, taskID int64) error {
	res, err := r.Q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
