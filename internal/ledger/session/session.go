// Package session implements timed work intervals on tasks, including the
// micro-session merge/purge rule run as a transactional atom before every
// fresh session is opened (spec.md §4.6, §9).
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/event"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
)

var (
	ErrNotFound       = errors.New("session: not found")
	ErrAlreadyOpen    = errors.New("session: a session is already open")
	ErrOpenSession    = errors.New("session: cannot delete an open session")
	ErrInvalidInterval = errors.New("session: start_ts must be before end_ts")
)

// microSessionWindow is the lookback/duration threshold in §4.6: a closed
// session ending within 30s of a new session's start, and itself under 30s
// long, is a micro-session subject to merge or purge.
const microSessionWindow = 30

type Repo struct {
	Q     store.Queryer
	Clock clock.Clock
}

func New(q store.Queryer, c clock.Clock) *Repo {
	return &Repo{Q: q, Clock: c}
}

// Notice describes a user-visible side effect of Create/CloseOpen that the
// CLI layer should print (spec.md §4.6: "Emit a user-visible notice").
type Notice struct {
	Kind    string // "merged_micro_session" | "purged_micro_session" | "micro_session_warning"
	Message string
}

// isUniqueConstraintError reports whether err is the sqlite driver's report
// of a violated UNIQUE index — here, idx_sessions_one_open (spec.md §4.6:
// "enforce at-most-one-open via the unique-partial index; on conflict, fail
// with a clear error").
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "UNIQUE constraint failed") ||
		strings.Contains(errMsg, "constraint failed: UNIQUE")
}

func scanSession(row interface{ Scan(...any) error }) (*types.Session, error) {
	var s types.Session
	if err := row.Scan(&s.ID, &s.TaskID, &s.StartTS, &s.EndTS, &s.CreatedTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: scan: %w", err)
	}
	return &s, nil
}

const selectCols = `id, task_id, start_ts, end_ts, created_ts`

// findMicroSession looks up the most recent closed session ending within
// [startTS-30s, startTS] whose own duration is under 30s (spec.md §4.6).
func (r *Repo) findMicroSession(ctx context.Context, startTS int64) (*types.Session, error) {
	row := r.Q.QueryRowContext(ctx, `
		SELECT `+selectCols+` FROM sessions
		WHERE end_ts IS NOT NULL
		  AND end_ts <= ?
		  AND end_ts >= ?
		  AND (end_ts - start_ts) < ?
		ORDER BY end_ts DESC, id DESC
		LIMIT 1`,
		startTS, startTS-microSessionWindow, microSessionWindow)
	s, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// Create opens a new session on task_id at start_ts, applying the
// micro-session merge/purge rule first.
func (r *Repo) Create(ctx context.Context, taskID, startTS int64) (*types.Session, *Notice, error) {
	micro, err := r.findMicroSession(ctx, startTS)
	if err != nil {
		return nil, nil, fmt.Errorf("session: create: %w", err)
	}

	var notice *Notice
	effectiveStart := startTS
	if micro != nil {
		if micro.TaskID == taskID {
			effectiveStart = micro.StartTS
			notice = &Notice{Kind: "merged_micro_session", Message: fmt.Sprintf("merged with prior micro-session (id %d)", micro.ID)}
		} else {
			notice = &Notice{Kind: "purged_micro_session", Message: fmt.Sprintf("discarded an unrelated micro-session (id %d) that ended just before this one started", micro.ID)}
		}
		if _, err := r.Q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, micro.ID); err != nil {
			return nil, nil, fmt.Errorf("session: remove micro-session: %w", err)
		}
	}

	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx, `INSERT INTO sessions (task_id, start_ts, end_ts, created_ts) VALUES (?, ?, NULL, ?)`,
		taskID, effectiveStart, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, nil, ErrAlreadyOpen
		}
		return nil, nil, fmt.Errorf("session: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("session: create: %w", err)
	}

	if err := event.Record(ctx, r.Q, taskID, now, types.EventSessionStarted, event.SessionStarted{SessionID: id, StartTS: effectiveStart}); err != nil {
		return nil, nil, err
	}

	return &types.Session{ID: id, TaskID: taskID, StartTS: effectiveStart, CreatedTS: now}, notice, nil
}

// CreateClosed records a historical, already-closed session. It never
// consults the micro-session rule.
func (r *Repo) CreateClosed(ctx context.Context, taskID, startTS, endTS int64) (*types.Session, error) {
	if startTS >= endTS {
		return nil, ErrInvalidInterval
	}
	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx, `INSERT INTO sessions (task_id, start_ts, end_ts, created_ts) VALUES (?, ?, ?, ?)`,
		taskID, startTS, endTS, now)
	if err != nil {
		return nil, fmt.Errorf("session: create closed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session: create closed: %w", err)
	}
	if err := event.Record(ctx, r.Q, taskID, now, types.EventSessionStarted, event.SessionStarted{SessionID: id, StartTS: startTS, EndTS: &endTS}); err != nil {
		return nil, err
	}
	return &types.Session{ID: id, TaskID: taskID, StartTS: startTS, EndTS: &endTS, CreatedTS: now}, nil
}

// GetOpen returns the single open session, or nil if none.
func (r *Repo) GetOpen(ctx context.Context) (*types.Session, error) {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM sessions WHERE end_ts IS NULL LIMIT 1`)
	s, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// CloseOpen closes the currently open session at end_ts, warning if the
// resulting duration is a micro-session.
func (r *Repo) CloseOpen(ctx context.Context, endTS int64) (*types.Session, *Notice, error) {
	open, err := r.GetOpen(ctx)
	if err != nil {
		return nil, nil, err
	}
	if open == nil {
		return nil, nil, ErrNotFound
	}
	if _, err := r.Q.ExecContext(ctx, `UPDATE sessions SET end_ts = ? WHERE id = ?`, endTS, open.ID); err != nil {
		return nil, nil, fmt.Errorf("session: close: %w", err)
	}
	open.EndTS = &endTS

	now := r.Clock.Now()
	if err := event.Record(ctx, r.Q, open.TaskID, now, types.EventSessionClosed, event.SessionClosed{SessionID: open.ID, StartTS: open.StartTS, EndTS: &endTS}); err != nil {
		return nil, nil, err
	}

	var notice *Notice
	if endTS-open.StartTS < microSessionWindow {
		notice = &Notice{Kind: "micro_session_warning", Message: fmt.Sprintf("session %d lasted under %ds", open.ID, microSessionWindow)}
	}
	return open, notice, nil
}

// GetByTask returns a task's sessions, newest-first.
func (r *Repo) GetByTask(ctx context.Context, taskID int64) ([]types.Session, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectCols+` FROM sessions WHERE task_id = ? ORDER BY start_ts DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("session: get by task: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// ListAll returns every session, newest-first.
func (r *Repo) ListAll(ctx context.Context) ([]types.Session, error) {
	rows, err := r.Q.QueryContext(ctx, `SELECT `+selectCols+` FROM sessions ORDER BY start_ts DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list all: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]types.Session, error) {
	var out []types.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetMostRecentForTask returns the newest session on task_id, or nil.
func (r *Repo) GetMostRecentForTask(ctx context.Context, taskID int64) (*types.Session, error) {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM sessions WHERE task_id = ? ORDER BY start_ts DESC, id DESC LIMIT 1`, taskID)
	s, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// ModifyStartTime directly edits a session's start_ts. The caller is
// responsible for overlap checks (spec.md §4.6).
func (r *Repo) ModifyStartTime(ctx context.Context, sessionID, ts int64) error {
	res, err := r.Q.ExecContext(ctx, `UPDATE sessions SET start_ts = ? WHERE id = ?`, ts, sessionID)
	if err != nil {
		return fmt.Errorf("session: modify start: %w", err)
	}
	return checkAffected(res)
}

// ModifyEndTime directly edits a session's end_ts (nil reopens it). The
// caller is responsible for overlap checks and for the at-most-one-open
// invariant (the DB's partial unique index will reject a second open row).
func (r *Repo) ModifyEndTime(ctx context.Context, sessionID int64, ts *int64) error {
	res, err := r.Q.ExecContext(ctx, `UPDATE sessions SET end_ts = ? WHERE id = ?`, ts, sessionID)
	if err != nil {
		return fmt.Errorf("session: modify end: %w", err)
	}
	return checkAffected(res)
}

// AmendEndTime sets a prior session's end_ts so it meets but does not
// overlap a newly created session on a different task (spec.md §4.6).
func (r *Repo) AmendEndTime(ctx context.Context, sessionID, newEndTS int64) error {
	return r.ModifyEndTime(ctx, sessionID, &newEndTS)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindOverlappingSessions returns closed sessions on task_id whose interval
// overlaps [start, end), excluding excludeID.
func (r *Repo) FindOverlappingSessions(ctx context.Context, taskID, start, end, excludeID int64) ([]types.Session, error) {
	rows, err := r.Q.QueryContext(ctx, `
		SELECT `+selectCols+` FROM sessions
		WHERE task_id = ? AND id != ? AND end_ts IS NOT NULL
		  AND start_ts < ? AND end_ts > ?
		ORDER BY start_ts ASC`,
		taskID, excludeID, end, start)
	if err != nil {
		return nil, fmt.Errorf("session: find overlapping: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// Delete removes a session row; refuses if it is currently open.
func (r *Repo) Delete(ctx context.Context, sessionID int64) error {
	row := r.Q.QueryRowContext(ctx, `SELECT `+selectCols+` FROM sessions WHERE id = ?`, sessionID)
	s, err := scanSession(row)
	if err != nil {
		return err
	}
	if s.Open() {
		return ErrOpenSession
	}
	res, err := r.Q.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return checkAffected(res)
}
