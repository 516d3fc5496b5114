// Package priority scores open tasks by urgency (spec.md §4.11): a sum of
// sub-scores from status, due-date proximity, allocation burn, and age.
package priority

import (
	"context"
	"fmt"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
)

// Score returns the urgency score for t as of now, given its total logged
// session seconds (0 if the caller hasn't computed it).
func Score(t types.Task, now int64, loggedSecs int64) float64 {
	var score float64

	if t.Status == types.StatusOpen {
		score += 1.0
	}

	if t.DueTS != nil {
		d := float64(*t.DueTS-now) / 86400.0
		switch {
		case d < 0:
			score += max(1.0, 15.0-0.5*abs(d))
		case d <= 7:
			score += max(1.0, 12.0-d)
		case d <= 30:
			score += max(0.5, 5.0-d/10)
		default:
			score += 2.0 / (1 + d/30)
		}
	}

	if t.AllocSecs != nil && *t.AllocSecs > 0 {
		remaining := float64(*t.AllocSecs-loggedSecs) / float64(*t.AllocSecs)
		switch {
		case remaining < 0.25:
			score += 3.0
		case remaining < 0.50:
			score += 1.5
		default:
			score += 0.5
		}
	}

	ageDays := float64(now-t.CreatedTS) / 86400.0
	if ageDays > 30 {
		score += min(2.0, ageDays/30) * 0.1
	}

	return score
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Scored pairs a task with its computed urgency score.
type Scored struct {
	Task  types.Task
	Score float64
}

// GetTopPriorityTasks returns the highest-scored open tasks, excluding ids
// in excludeIDs, sorted score-descending, capped at limit (spec.md §4.11).
func GetTopPriorityTasks(ctx context.Context, q store.Queryer, c clock.Clock, excludeIDs map[int64]bool, limit int) ([]Scored, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, uuid, description, status, project_id, due_ts, scheduled_ts, wait_ts,
			alloc_secs, template, respawn, parent_id, udas_json, created_ts, modified_ts, activity_ts
		FROM tasks WHERE status = 'open'`)
	if err != nil {
		return nil, fmt.Errorf("priority: query open tasks: %w", err)
	}
	defer rows.Close()

	now := c.Now()
	var scored []Scored
	for rows.Next() {
		var t types.Task
		var status, udasJSON string
		if err := rows.Scan(&t.ID, &t.UUID, &t.Description, &status, &t.ProjectID, &t.DueTS,
			&t.ScheduledTS, &t.WaitTS, &t.AllocSecs, &t.Template, &t.Respawn, &t.ParentID,
			&udasJSON, &t.CreatedTS, &t.ModifiedTS, &t.ActivityTS); err != nil {
			return nil, fmt.Errorf("priority: scan: %w", err)
		}
		t.Status = types.Status(status)
		if excludeIDs[t.ID] {
			continue
		}
		logged, err := loggedSeconds(ctx, q, t.ID, now)
		if err != nil {
			return nil, err
		}
		scored = append(scored, Scored{Task: t, Score: Score(t, now, logged)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortScoredDescending(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func loggedSeconds(ctx context.Context, q store.Queryer, taskID, now int64) (int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT start_ts, end_ts FROM sessions WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("priority: logged seconds: %w", err)
	}
	defer rows.Close()
	var total int64
	for rows.Next() {
		var start int64
		var end *int64
		if err := rows.Scan(&start, &end); err != nil {
			return 0, err
		}
		if end != nil {
			total += *end - start
		} else {
			total += now - start
		}
	}
	return total, rows.Err()
}

func sortScoredDescending(s []Scored) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Score > s[j-1].Score; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
