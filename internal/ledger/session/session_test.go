package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/session"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/store"
)

func newFixture(t *testing.T) (*session.Repo, *task.Repo, int64) {
	t.Helper()
	ctx := context.Background()
	s, err := store.InMemory(ctx)
	if err != nil {
		t.Fatalf("InMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	c := clock.NewFixed(1_700_000_000, nil)
	sr := session.New(s.DB(), c)
	tr := task.New(s.DB(), c, nil)
	tsk, err := tr.CreateFull(ctx, task.CreateFullParams{Description: "work"})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}
	return sr, tr, tsk.ID
}

func TestCreateAndCloseOpen(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)

	s, notice, err := sr.Create(ctx, taskID, 1_700_000_000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if notice != nil {
		t.Fatalf("unexpected notice on first session: %+v", notice)
	}
	if !s.Open() {
		t.Fatalf("expected open session")
	}

	open, err := sr.GetOpen(ctx)
	if err != nil {
		t.Fatalf("GetOpen: %v", err)
	}
	if open == nil || open.ID != s.ID {
		t.Fatalf("expected open session %d, got %+v", s.ID, open)
	}

	closed, notice, err := sr.CloseOpen(ctx, 1_700_003_600)
	if err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if notice != nil {
		t.Fatalf("unexpected micro-session warning for 1h session: %+v", notice)
	}
	if closed.Duration(0) != 3600 {
		t.Fatalf("expected 3600s duration, got %d", closed.Duration(0))
	}
}

func TestCreateRejectsSecondOpenSession(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)
	if _, _, err := sr.Create(ctx, taskID, 1_700_000_000); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _, err := sr.Create(ctx, taskID, 1_700_000_100)
	if err == nil {
		t.Fatalf("expected second open session to fail the unique-open constraint")
	}
	if !errors.Is(err, session.ErrAlreadyOpen) {
		t.Fatalf("err = %v, want ErrAlreadyOpen", err)
	}
}

func TestMicroSessionMergeSameTask(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)

	// A 10s session ending at T, then a new session on the same task starting
	// at T+5 (within the 30s lookback) should merge: the new session's
	// start_ts becomes the micro-session's original start_ts.
	if _, err := sr.CreateClosed(ctx, taskID, 1_700_000_000, 1_700_000_010); err != nil {
		t.Fatalf("CreateClosed: %v", err)
	}
	s, notice, err := sr.Create(ctx, taskID, 1_700_000_015)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if notice == nil || notice.Kind != "merged_micro_session" {
		t.Fatalf("expected merge notice, got %+v", notice)
	}
	if s.StartTS != 1_700_000_000 {
		t.Fatalf("expected merged start_ts 1700000000, got %d", s.StartTS)
	}

	all, err := sr.GetByTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetByTask: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected micro-session absorbed into one session, got %+v", all)
	}
}

func TestMicroSessionPurgeDifferentTask(t *testing.T) {
	ctx := context.Background()
	sr, tr, taskA := newFixture(t)
	ctx2 := context.Background()
	taskB, err := tr.CreateFull(ctx2, task.CreateFullParams{Description: "other"})
	if err != nil {
		t.Fatalf("CreateFull: %v", err)
	}

	if _, err := sr.CreateClosed(ctx, taskA, 1_700_000_000, 1_700_000_010); err != nil {
		t.Fatalf("CreateClosed: %v", err)
	}
	s, notice, err := sr.Create(ctx, taskB.ID, 1_700_000_015)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if notice == nil || notice.Kind != "purged_micro_session" {
		t.Fatalf("expected purge notice, got %+v", notice)
	}
	if s.StartTS != 1_700_000_015 {
		t.Fatalf("expected unmodified start_ts for purge case, got %d", s.StartTS)
	}

	aSessions, err := sr.GetByTask(ctx, taskA)
	if err != nil {
		t.Fatalf("GetByTask: %v", err)
	}
	if len(aSessions) != 0 {
		t.Fatalf("expected micro-session on task A purged, got %+v", aSessions)
	}
}

func TestCloseOpenWarnsOnMicroSession(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)
	if _, _, err := sr.Create(ctx, taskID, 1_700_000_000); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, notice, err := sr.CloseOpen(ctx, 1_700_000_010)
	if err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if notice == nil || notice.Kind != "micro_session_warning" {
		t.Fatalf("expected micro-session warning, got %+v", notice)
	}
}

func TestDeleteRefusesOpenSession(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)
	s, _, err := sr.Create(ctx, taskID, 1_700_000_000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := sr.Delete(ctx, s.ID); err != session.ErrOpenSession {
		t.Fatalf("expected ErrOpenSession, got %v", err)
	}
	if _, _, err := sr.CloseOpen(ctx, 1_700_003_600); err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if err := sr.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete after close: %v", err)
	}
}

func TestFindOverlappingSessions(t *testing.T) {
	ctx := context.Background()
	sr, _, taskID := newFixture(t)
	s1, err := sr.CreateClosed(ctx, taskID, 1_700_000_000, 1_700_003_600)
	if err != nil {
		t.Fatalf("CreateClosed: %v", err)
	}
	overlapping, err := sr.FindOverlappingSessions(ctx, taskID, 1_700_001_000, 1_700_002_000, 0)
	if err != nil {
		t.Fatalf("FindOverlappingSessions: %v", err)
	}
	if len(overlapping) != 1 || overlapping[0].ID != s1.ID {
		t.Fatalf("expected overlap with s1, got %+v", overlapping)
	}

	none, err := sr.FindOverlappingSessions(ctx, taskID, 1_700_010_000, 1_700_011_000, 0)
	if err != nil {
		t.Fatalf("FindOverlappingSessions: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no overlap, got %+v", none)
	}
}
