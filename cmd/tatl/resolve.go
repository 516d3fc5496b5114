package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/project"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/ui"
)

// resolveProjectOpt turns a project-field Opt[string] (name, "", or
// NoChange) into an Opt[int64] project id, creating/prompting for the
// project by name when it doesn't exist yet (spec.md §6.1 "Project-not-found
// prompt").
func resolveProjectOpt(ctx context.Context, tx *ledger.Tx, opt task.Opt[string]) (task.Opt[int64], error) {
	if opt.IsNoChange() {
		return task.NoChange[int64](), nil
	}
	if opt.IsClear() {
		return task.ClearOpt[int64](), nil
	}
	id, err := resolveProjectName(ctx, tx, opt.Value())
	if err != nil {
		return task.Opt[int64]{}, err
	}
	if id == nil {
		return task.NoChange[int64](), nil // "leave project-less" choice
	}
	return task.SetOpt(*id), nil
}

// resolveProjectName looks up a project by name, offering to create it (or
// leave the task project-less, or cancel the whole command) when it's
// missing, per spec.md §6.1. autoCreateProject bypasses the prompt with "y".
func resolveProjectName(ctx context.Context, tx *ledger.Tx, name string) (*int64, error) {
	p, err := tx.Projects.GetByName(ctx, name)
	if err == nil {
		return &p.ID, nil
	}
	if !errors.Is(err, project.ErrNotFound) {
		return nil, err
	}

	var choice ui.ProjectPromptChoice
	if autoCreateProject {
		choice = ui.ProjectPromptCreate
	} else {
		choice, err = ui.PromptProjectNotFound(name)
		if err != nil {
			return nil, err
		}
	}

	switch choice {
	case ui.ProjectPromptCreate:
		created, err := tx.Projects.Create(ctx, name)
		if err != nil {
			return nil, err
		}
		return &created.ID, nil
	case ui.ProjectPromptLeave:
		return nil, nil
	default: // ui.ProjectPromptCancel
		suggestions, sugErr := tx.Projects.SuggestNames(ctx, name, 3)
		if sugErr == nil && len(suggestions) > 0 {
			return nil, fmt.Errorf("command cancelled; did you mean one of: %s?", strings.Join(suggestions, ", "))
		}
		return nil, fmt.Errorf("command cancelled: project %q not found", name)
	}
}

// currentStackTaskID returns the task id at the top of the default stack
// (ordinal 0), used when "on" is given no task id. Bare "finish" resolves
// its target from the open session instead (lifecycleTargetID).
func currentStackTaskID(ctx context.Context, tx *ledger.Tx) (int64, error) {
	stackID, err := tx.DefaultStackID(ctx)
	if err != nil {
		return 0, err
	}
	items, err := tx.Stacks.GetItems(ctx, stackID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("stack is empty")
	}
	return items[0].TaskID, nil
}

// parseTaskID parses a positional task-id argument.
func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// parseID parses a positional id argument that isn't necessarily a task id
// (e.g. a session id), for a clearer error message than parseTaskID's.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
