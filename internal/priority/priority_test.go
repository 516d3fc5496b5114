package priority_test

import (
	"context"
	"testing"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/priority"
	"github.com/da11an/tatl/internal/store"
)

func newFixture(t *testing.T) (*store.Store, clock.Clock, *task.Repo) {
	t.Helper()
	ctx := context.Background()
	s, err := store.InMemory(ctx)
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := clock.NewFixed(1_700_000_000, nil)
	return s, c, task.New(s.DB(), c, nil)
}

func TestScoreOpenStatusBaseline(t *testing.T) {
	now := int64(1_700_000_000)
	t1 := types.Task{Status: types.StatusOpen, CreatedTS: now}
	t2 := types.Task{Status: types.StatusClosed, CreatedTS: now}
	if got := priority.Score(t1, now, 0); got < 1.0 {
		t.Fatalf("expected open status to add at least 1.0, got %v", got)
	}
	if got := priority.Score(t2, now, 0); got != 0 {
		t.Fatalf("expected closed status to add nothing, got %v", got)
	}
}

func TestScoreOverdueOutscoresFarFuture(t *testing.T) {
	now := int64(1_700_000_000)
	overdue := now - 86400
	farFuture := now + 90*86400
	tOverdue := types.Task{Status: types.StatusOpen, CreatedTS: now, DueTS: &overdue}
	tFuture := types.Task{Status: types.StatusOpen, CreatedTS: now, DueTS: &farFuture}
	got1 := priority.Score(tOverdue, now, 0)
	got2 := priority.Score(tFuture, now, 0)
	if got1 <= got2 {
		t.Fatalf("expected overdue task to score higher than far-future task: overdue=%v future=%v", got1, got2)
	}
}

func TestScoreAllocationBurnIncreasesWithUsage(t *testing.T) {
	now := int64(1_700_000_000)
	alloc := int64(3600)
	base := types.Task{Status: types.StatusOpen, CreatedTS: now, AllocSecs: &alloc}
	lowUse := priority.Score(base, now, 100)
	highUse := priority.Score(base, now, 3500)
	if highUse <= lowUse {
		t.Fatalf("expected near-exhausted allocation to score higher: low=%v high=%v", lowUse, highUse)
	}
}

func TestScoreAgeBonusOnlyAfterThirtyDays(t *testing.T) {
	now := int64(1_700_000_000)
	young := types.Task{Status: types.StatusOpen, CreatedTS: now - 5*86400}
	old := types.Task{Status: types.StatusOpen, CreatedTS: now - 60*86400}
	gotYoung := priority.Score(young, now, 0)
	gotOld := priority.Score(old, now, 0)
	if gotOld <= gotYoung {
		t.Fatalf("expected task older than 30 days to score higher: young=%v old=%v", gotYoung, gotOld)
	}
}

func TestGetTopPriorityTasksOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	s, c, tr := newFixture(t)

	overdue := c.Now() - 86400
	far := c.Now() + 200*86400

	_, err := tr.CreateFull(ctx, task.CreateFullParams{Description: "low urgency", DueTS: &far})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}
	high, err := tr.CreateFull(ctx, task.CreateFullParams{Description: "high urgency", DueTS: &overdue})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}
	excluded, err := tr.CreateFull(ctx, task.CreateFullParams{Description: "excluded but high urgency", DueTS: &overdue})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}

	excludeIDs := map[int64]bool{excluded.ID: true}
	scored, err := priority.GetTopPriorityTasks(ctx, s.DB(), c, excludeIDs, 2)
	if err != nil {
		t.Fatalf("GetTopPriorityTasks: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("expected limit=2 to cap results, got %d", len(scored))
	}
	if scored[0].Task.ID != high.ID {
		t.Fatalf("expected most urgent task first, got id %d", scored[0].Task.ID)
	}
	if scored[0].Score < scored[1].Score {
		t.Fatalf("expected descending score order: %v then %v", scored[0].Score, scored[1].Score)
	}
}
