// Package stack implements the totally-ordered, dense-ordinal work stack
// (spec.md §4.5). Eligibility checks query the tasks/task_externals tables
// directly by SQL rather than importing internal/ledger/task, keeping the
// package leaf-level like internal/respawn/rule.
package stack

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/event"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
)

var (
	ErrNotFound         = errors.New("stack: not found")
	ErrTaskNotFound     = errors.New("stack: task not found")
	ErrTaskTerminal     = errors.New("stack: task is in a terminal state")
	ErrTaskExternal     = errors.New("stack: task has an active external")
	ErrEmptyStack       = errors.New("stack: empty")
	ErrInvalidSortField = errors.New("stack: invalid sort field")
)

const DefaultStackName = "default"

type Repo struct {
	Q     store.Queryer
	Clock clock.Clock
}

func New(q store.Queryer, c clock.Clock) *Repo {
	return &Repo{Q: q, Clock: c}
}

// GetOrCreateDefault ensures the "default" stack row exists and returns it.
func (r *Repo) GetOrCreateDefault(ctx context.Context) (*types.Stack, error) {
	return r.getOrCreate(ctx, DefaultStackName)
}

func (r *Repo) getOrCreate(ctx context.Context, name string) (*types.Stack, error) {
	row := r.Q.QueryRowContext(ctx, `SELECT id, name, created_ts, modified_ts FROM stacks WHERE name = ?`, name)
	var s types.Stack
	err := row.Scan(&s.ID, &s.Name, &s.CreatedTS, &s.ModifiedTS)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stack: get: %w", err)
	}
	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx, `INSERT INTO stacks (name, created_ts, modified_ts) VALUES (?, ?, ?)`, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("stack: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("stack: create: %w", err)
	}
	return &types.Stack{ID: id, Name: name, CreatedTS: now, ModifiedTS: now}, nil
}

// GetItems returns a stack's items ordered by ordinal.
func (r *Repo) GetItems(ctx context.Context, stackID int64) ([]types.StackItem, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT stack_id, task_id, ordinal, added_ts FROM stack_items WHERE stack_id = ? ORDER BY ordinal ASC`, stackID)
	if err != nil {
		return nil, fmt.Errorf("stack: get items: %w", err)
	}
	defer rows.Close()
	var out []types.StackItem
	for rows.Next() {
		var it types.StackItem
		if err := rows.Scan(&it.StackID, &it.TaskID, &it.Ordinal, &it.AddedTS); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) checkEligible(ctx context.Context, taskID int64) error {
	var status string
	err := r.Q.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, taskID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("stack: check task: %w", err)
	}
	if types.Status(status).Terminal() {
		return ErrTaskTerminal
	}
	var activeExternals int
	if err := r.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_externals WHERE task_id = ? AND returned_ts IS NULL`, taskID).Scan(&activeExternals); err != nil {
		return fmt.Errorf("stack: check externals: %w", err)
	}
	if activeExternals > 0 {
		return ErrTaskExternal
	}
	return nil
}

func (r *Repo) maxOrdinal(ctx context.Context, stackID int64) (int, error) {
	var max sql.NullInt64
	if err := r.Q.QueryRowContext(ctx, `SELECT MAX(ordinal) FROM stack_items WHERE stack_id = ?`, stackID).Scan(&max); err != nil {
		return -1, fmt.Errorf("stack: max ordinal: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// Enqueue appends task_id to the tail of the stack, or moves it to the tail
// if already present. Refuses terminal or externally-blocked tasks.
func (r *Repo) Enqueue(ctx context.Context, stackID, taskID int64) error {
	if err := r.checkEligible(ctx, taskID); err != nil {
		return err
	}
	if _, err := r.Q.ExecContext(ctx, `DELETE FROM stack_items WHERE stack_id = ? AND task_id = ?`, stackID, taskID); err != nil {
		return fmt.Errorf("stack: enqueue: %w", err)
	}
	max, err := r.maxOrdinal(ctx, stackID)
	if err != nil {
		return err
	}
	now := r.Clock.Now()
	if _, err := r.Q.ExecContext(ctx, `INSERT INTO stack_items (stack_id, task_id, ordinal, added_ts) VALUES (?, ?, ?, ?)`,
		stackID, taskID, max+1, now); err != nil {
		return fmt.Errorf("stack: enqueue: %w", err)
	}
	return event.Record(ctx, r.Q, taskID, now, types.EventStackAdded, event.StackAdded{StackID: stackID, Ordinal: max + 1})
}

// PushToTop inserts task_id at ordinal 0, shifting everything else up. No
// eligibility check: used to work a task despite an external-waiting state.
func (r *Repo) PushToTop(ctx context.Context, stackID, taskID int64) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	now := r.Clock.Now()

	// Two-step negate-and-restore: shifting ordinals up by one in a single
	// UPDATE would collide with the (stack_id, ordinal) unique index, since
	// SQLite applies row updates one at a time rather than as a set.
	if _, err := r.Q.ExecContext(ctx, `UPDATE stack_items SET ordinal = -(ordinal + 1) WHERE stack_id = ? AND task_id != ?`, stackID, taskID); err != nil {
		return fmt.Errorf("stack: push to top: %w", err)
	}
	if _, err := r.Q.ExecContext(ctx, `DELETE FROM stack_items WHERE stack_id = ? AND task_id = ?`, stackID, taskID); err != nil {
		return fmt.Errorf("stack: push to top: %w", err)
	}
	if _, err := r.Q.ExecContext(ctx, `UPDATE stack_items SET ordinal = -ordinal WHERE stack_id = ? AND ordinal < 0`, stackID); err != nil {
		return fmt.Errorf("stack: push to top: %w", err)
	}
	if _, err := r.Q.ExecContext(ctx, `INSERT INTO stack_items (stack_id, task_id, ordinal, added_ts) VALUES (?, ?, 0, ?)`, stackID, taskID, now); err != nil {
		return fmt.Errorf("stack: push to top: %w", err)
	}
	_ = items
	if err := r.recompact(ctx, stackID); err != nil {
		return err
	}
	return event.Record(ctx, r.Q, taskID, now, types.EventStackAdded, event.StackAdded{StackID: stackID, Ordinal: 0})
}

func clampIndex(index, length int) int {
	if length == 0 {
		return -1
	}
	if index < 0 {
		index = length + index
	}
	if index < 0 {
		index = 0
	}
	if index > length-1 {
		index = length - 1
	}
	return index
}

// Pick moves the item at the clamped index to the top of the stack.
func (r *Repo) Pick(ctx context.Context, stackID int64, index int) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	idx := clampIndex(index, len(items))
	if idx < 0 {
		return ErrEmptyStack
	}
	return r.PushToTop(ctx, stackID, items[idx].TaskID)
}

// Roll left-rotates the stack by n (mod len); negative n rotates right.
func (r *Repo) Roll(ctx context.Context, stackID int64, n int) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	l := len(items)
	if l == 0 {
		return nil
	}
	shift := ((n % l) + l) % l
	if shift == 0 {
		return nil
	}
	rotated := make([]types.StackItem, l)
	for i, it := range items {
		rotated[(i-shift+l)%l] = it
	}
	return r.renumber(ctx, stackID, rotated)
}

// Drop removes the item at the clamped index and re-compacts.
func (r *Repo) Drop(ctx context.Context, stackID int64, index int) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	idx := clampIndex(index, len(items))
	if idx < 0 {
		return ErrEmptyStack
	}
	return r.RemoveTask(ctx, stackID, items[idx].TaskID)
}

// RemoveTask removes task_id from the stack by id and re-compacts.
func (r *Repo) RemoveTask(ctx context.Context, stackID, taskID int64) error {
	res, err := r.Q.ExecContext(ctx, `DELETE FROM stack_items WHERE stack_id = ? AND task_id = ?`, stackID, taskID)
	if err != nil {
		return fmt.Errorf("stack: remove task: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	if err := r.recompact(ctx, stackID); err != nil {
		return err
	}
	return event.Record(ctx, r.Q, taskID, r.Clock.Now(), types.EventStackRemoved, event.StackRemoved{StackID: stackID})
}

// Clear removes every item from the stack.
func (r *Repo) Clear(ctx context.Context, stackID int64) error {
	if _, err := r.Q.ExecContext(ctx, `DELETE FROM stack_items WHERE stack_id = ?`, stackID); err != nil {
		return fmt.Errorf("stack: clear: %w", err)
	}
	return nil
}

// sortableFields maps a `queue sort <field>` token to the tasks column it
// reads (spec.md §5 supplement, grounded on the original's field-generic
// `queue sort`). "priority" is a UDA alias rather than a column.
var sortableFields = map[string]string{
	"due":        "due_ts",
	"scheduled":  "scheduled_ts",
	"wait":       "wait_ts",
	"allocation": "alloc_secs",
}

// SortByField reorders a stack's items by a task field or `uda.<key>` value,
// ascending, or descending when field is prefixed with "-". Items missing
// the field always sort last, regardless of direction. Returns
// ErrInvalidSortField for an unrecognized field and ErrEmptyStack when the
// stack has nothing to sort.
func (r *Repo) SortByField(ctx context.Context, stackID int64, field string) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrEmptyStack
	}

	descending := strings.HasPrefix(field, "-")
	name := strings.TrimPrefix(field, "-")

	column, udaKey := "", ""
	switch {
	case name == "priority":
		udaKey = "priority"
	case strings.HasPrefix(name, "uda."):
		udaKey = strings.TrimPrefix(name, "uda.")
	default:
		col, ok := sortableFields[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidSortField, field)
		}
		column = col
	}

	type keyed struct {
		item types.StackItem
		val  *float64
	}
	keyedItems := make([]keyed, 0, len(items))
	for _, it := range items {
		var val *float64
		if column != "" {
			var v sql.NullInt64
			if err := r.Q.QueryRowContext(ctx, `SELECT `+column+` FROM tasks WHERE id = ?`, it.TaskID).Scan(&v); err != nil {
				return fmt.Errorf("stack: sort: %w", err)
			}
			if v.Valid {
				f := float64(v.Int64)
				val = &f
			}
		} else {
			var udasJSON string
			if err := r.Q.QueryRowContext(ctx, `SELECT udas_json FROM tasks WHERE id = ?`, it.TaskID).Scan(&udasJSON); err != nil {
				return fmt.Errorf("stack: sort: %w", err)
			}
			udas := map[string]string{}
			if udasJSON != "" {
				_ = json.Unmarshal([]byte(udasJSON), &udas)
			}
			if raw, ok := udas[udaKey]; ok {
				if f, err := strconv.ParseFloat(raw, 64); err == nil {
					val = &f
				}
			}
		}
		keyedItems = append(keyedItems, keyed{it, val})
	}

	sort.SliceStable(keyedItems, func(i, j int) bool {
		a, b := keyedItems[i].val, keyedItems[j].val
		if a == nil || b == nil {
			return a != nil // present values sort before missing ones either way
		}
		if descending {
			return *a > *b
		}
		return *a < *b
	})

	ordered := make([]types.StackItem, len(keyedItems))
	for i, k := range keyedItems {
		ordered[i] = k.item
	}
	return r.renumber(ctx, stackID, ordered)
}

// recompact renumbers a stack's items to {0..len-1} in their current
// ordinal order, closing any gaps left by a removal.
func (r *Repo) recompact(ctx context.Context, stackID int64) error {
	items, err := r.GetItems(ctx, stackID)
	if err != nil {
		return err
	}
	return r.renumber(ctx, stackID, items)
}

// renumber assigns dense ordinals 0..len(items)-1 to items in the given
// order. Uses the same negate-then-restore trick as PushToTop to avoid
// transient collisions with the (stack_id, ordinal) unique index.
func (r *Repo) renumber(ctx context.Context, stackID int64, items []types.StackItem) error {
	for _, it := range items {
		if _, err := r.Q.ExecContext(ctx, `UPDATE stack_items SET ordinal = -(ordinal + 1) WHERE stack_id = ? AND task_id = ?`, stackID, it.TaskID); err != nil {
			return fmt.Errorf("stack: renumber: %w", err)
		}
	}
	for i, it := range items {
		if _, err := r.Q.ExecContext(ctx, `UPDATE stack_items SET ordinal = ? WHERE stack_id = ? AND task_id = ?`, i, stackID, it.TaskID); err != nil {
			return fmt.Errorf("stack: renumber: %w", err)
		}
	}
	return nil
}
