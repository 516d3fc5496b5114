package external_test

import (
	"context"
	"testing"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/external"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/store"
)

func newFixture(t *testing.T) (*external.Repo, int64) {
	t.Helper()
	ctx := context.Background()
	s, err := store.InMemory(ctx)
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := clock.NewFixed(1_700_000_000, nil)
	er := external.New(s.DB(), c)
	tr := task.New(s.DB(), c, nil)
	tsk, err := tr.CreateFull(ctx, task.CreateFullParams{Description: "task"})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}
	return er, tsk.ID
}

func TestAddAndReturn(t *testing.T) {
	ctx := context.Background()
	er, taskID := newFixture(t)

	req := "please review"
	e, err := er.Add(ctx, taskID, "alice@example.com", &req, 1_700_000_000)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !e.Active() {
		t.Fatalf("expected active external")
	}

	active, err := er.GetActiveForTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetActiveForTask: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active external, got %+v", active)
	}

	returned, err := er.Return(ctx, e.ID, 1_700_001_000)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if returned.Active() {
		t.Fatalf("expected returned external to be inactive")
	}

	active, err = er.GetActiveForTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetActiveForTask: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected 0 active externals after return, got %+v", active)
	}

	if _, err := er.Return(ctx, e.ID, 1_700_002_000); err == nil {
		t.Fatalf("expected double-return to fail")
	}
}

func TestAddRejectsEmptyRecipient(t *testing.T) {
	ctx := context.Background()
	er, taskID := newFixture(t)
	if _, err := er.Add(ctx, taskID, "", nil, 1_700_000_000); err == nil {
		t.Fatalf("expected empty recipient to be rejected")
	}
}
