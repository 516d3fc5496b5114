package stage_test

import (
	"testing"

	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/stage"
)

func TestClassifyTerminalStatuses(t *testing.T) {
	cases := map[types.Status]types.Stage{
		types.StatusClosed:    types.StageCompleted,
		types.StatusCancelled: types.StageCancelled,
		types.StatusDeleted:   types.StageDeleted,
	}
	for status, want := range cases {
		got := stage.Classify(stage.Inputs{Status: status})
		if got != want {
			t.Errorf("status %s: got %s want %s", status, got, want)
		}
	}
}

func TestClassifyOpenSessionBeatsEverything(t *testing.T) {
	got := stage.Classify(stage.Inputs{Status: types.StatusOpen, HasOpenSession: true, HasExternals: true})
	if got != types.StageActive {
		t.Fatalf("expected active, got %s", got)
	}
}

func TestClassifyExternalBeatsQueueState(t *testing.T) {
	got := stage.Classify(stage.Inputs{Status: types.StatusOpen, HasExternals: true, InQueue: true, HasSessions: true})
	if got != types.StageExternal {
		t.Fatalf("expected external, got %s", got)
	}
}

func TestClassifyQueueSessionMatrix(t *testing.T) {
	cases := []struct {
		inQueue, hasSessions bool
		want                 types.Stage
	}{
		{false, false, types.StageProposed},
		{true, false, types.StagePlanned},
		{true, true, types.StageInProgress},
		{false, true, types.StageSuspended},
	}
	for _, c := range cases {
		got := stage.Classify(stage.Inputs{Status: types.StatusOpen, InQueue: c.inQueue, HasSessions: c.hasSessions})
		if got != c.want {
			t.Errorf("inQueue=%v hasSessions=%v: got %s want %s", c.inQueue, c.hasSessions, got, c.want)
		}
	}
}
