// Package stage computes a task's display stage from its status and queue/
// session/external state. Pure function, no I/O (spec.md §4.7).
package stage

import "github.com/da11an/tatl/internal/ledger/types"

// Inputs is the tuple the classifier matches on.
type Inputs struct {
	Status         types.Status
	InQueue        bool
	HasSessions    bool
	HasOpenSession bool
	HasExternals   bool
}

// Classify returns the stage for the given inputs. Rule order is fixed: the
// first matching rule wins (spec.md §4.7).
func Classify(in Inputs) types.Stage {
	switch in.Status {
	case types.StatusClosed:
		return types.StageCompleted
	case types.StatusCancelled:
		return types.StageCancelled
	case types.StatusDeleted:
		return types.StageDeleted
	}

	if in.HasOpenSession {
		return types.StageActive
	}
	if in.HasExternals {
		return types.StageExternal
	}

	switch {
	case !in.InQueue && !in.HasSessions:
		return types.StageProposed
	case in.InQueue && !in.HasSessions:
		return types.StagePlanned
	case in.InQueue && in.HasSessions:
		return types.StageInProgress
	default: // !in.InQueue && in.HasSessions
		return types.StageSuspended
	}
}
