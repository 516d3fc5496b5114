package ledger_test

import (
	"context"
	"testing"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/store"
)

func newFixture(t *testing.T) *ledger.Ledger {
	t.Helper()
	ctx := context.Background()
	s, err := store.InMemory(ctx)
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := clock.NewFixed(1_700_000_000, nil)
	return ledger.New(s, c)
}

func TestRunCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	l := newFixture(t)

	var createdID int64
	err := l.Run(ctx, func(tx *ledger.Tx) error {
		created, err := tx.Tasks.CreateFull(ctx, task.CreateFullParams{Description: "buy milk"})
		if err != nil {
			return err
		}
		createdID = created.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	err = l.Run(ctx, func(tx *ledger.Tx) error {
		got, err := tx.Tasks.GetByID(ctx, createdID)
		if err != nil {
			return err
		}
		if got.Description != "buy milk" {
			t.Fatalf("got description %q", got.Description)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run (read back): %v", err)
	}
}

func TestRunRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	l := newFixture(t)

	sentinel := context.Canceled
	var createdID int64
	err := l.Run(ctx, func(tx *ledger.Tx) error {
		created, err := tx.Tasks.CreateFull(ctx, task.CreateFullParams{Description: "rolled back"})
		if err != nil {
			return err
		}
		createdID = created.ID
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	err = l.Run(ctx, func(tx *ledger.Tx) error {
		_, err := tx.Tasks.GetByID(ctx, createdID)
		if err == nil {
			t.Fatalf("expected task to not exist after rollback")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run (verify rollback): %v", err)
	}
}

func TestDefaultStackIDBindsFilterEvaluator(t *testing.T) {
	ctx := context.Background()
	l := newFixture(t)

	err := l.Run(ctx, func(tx *ledger.Tx) error {
		stackID, err := tx.DefaultStackID(ctx)
		if err != nil {
			return err
		}
		if stackID == 0 {
			t.Fatalf("expected a non-zero default stack id")
		}
		if tx.Filter.StackID != stackID {
			t.Fatalf("expected tx.Filter bound to stack %d, got %d", stackID, tx.Filter.StackID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}
