package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/filter"
	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/priority"
	"github.com/da11an/tatl/internal/stage"
	"github.com/da11an/tatl/internal/viewopts"
)

var listCmd = &cobra.Command{
	Use:   "list [filter/view tokens...]",
	Short: "List tasks matching a filter expression",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var filterWords, viewWords []string
		for _, a := range args {
			if viewopts.IsViewToken(a) {
				viewWords = append(viewWords, a)
			} else {
				filterWords = append(filterWords, a)
			}
		}
		opt, err := viewopts.Parse(viewWords)
		if err != nil {
			fatalUser("%v", err)
		}
		expr, err := filter.Parse(filterWords)
		if err != nil {
			fatalUser("%v", err)
		}

		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			tasks, err := tx.Tasks.ListAll(ctx)
			if err != nil {
				return err
			}

			var matched []types.Task
			for _, t := range tasks {
				ok, err := tx.Filter.Matches(ctx, expr, t)
				if err != nil {
					return err
				}
				if ok {
					matched = append(matched, t)
				}
			}

			rows := make([]taskRow, 0, len(matched))
			now := tx.Clock.Now()
			for _, t := range matched {
				row, err := buildTaskRow(ctx, tx, t, stackID, now)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}

			sortRows(rows, opt.EffectiveSort())

			if jsonOutput {
				jsonRows := make([]taskJSON, len(rows))
				for i, r := range rows {
					jsonRows[i] = toTaskJSON(r.Task, r.ProjectName, r.Tags, r.Kanban)
				}
				outputJSON(jsonRows)
				return nil
			}
			renderTaskTable(rows, opt)
			return nil
		})
	},
}

// buildTaskRow assembles the display/JSON source for one task: project
// name, tags, logged time, priority score and kanban stage (spec.md §4.7,
// §4.10).
func buildTaskRow(ctx context.Context, tx *ledger.Tx, t types.Task, stackID, now int64) (taskRow, error) {
	var projectName string
	if t.ProjectID != nil {
		p, err := tx.Projects.GetByID(ctx, *t.ProjectID)
		if err == nil {
			projectName = p.Name
		}
	}
	tags, err := tx.Tasks.GetTags(ctx, t.ID)
	if err != nil {
		return taskRow{}, err
	}

	items, err := tx.Stacks.GetItems(ctx, stackID)
	if err != nil {
		return taskRow{}, err
	}
	inQueue := false
	for _, it := range items {
		if it.TaskID == t.ID {
			inQueue = true
			break
		}
	}

	sessions, err := tx.Sessions.GetByTask(ctx, t.ID)
	if err != nil {
		return taskRow{}, err
	}
	var loggedSecs int64
	hasOpenSession := false
	for _, s := range sessions {
		if s.EndTS == nil {
			hasOpenSession = true
			loggedSecs += now - s.StartTS
			continue
		}
		loggedSecs += *s.EndTS - s.StartTS
	}

	externals, err := tx.Externals.GetActiveForTask(ctx, t.ID)
	if err != nil {
		return taskRow{}, err
	}

	kanban := stage.Classify(stage.Inputs{
		Status: t.Status, InQueue: inQueue, HasSessions: len(sessions) > 0,
		HasOpenSession: hasOpenSession, HasExternals: len(externals) > 0,
	})

	return taskRow{
		Task: t, ProjectName: projectName, Tags: tags, Kanban: kanban,
		LoggedSecs: loggedSecs, Priority: priority.Score(t, now, loggedSecs), Now: now,
	}, nil
}

// sortRows orders rows in place by the view option's sort key list,
// ascending by default and descending when a key is prefixed with "-".
func sortRows(rows []taskRow, keys []viewopts.SortKey) {
	if len(keys) == 0 {
		return
	}
	less := func(i, j int) bool {
		for _, k := range keys {
			c := compareRows(rows[i], rows[j], k.Column)
			if c == 0 {
				continue
			}
			if k.Reversed {
				return c > 0
			}
			return c < 0
		}
		return false
	}
	insertionSort(rows, less)
}

func compareRows(a, b taskRow, col viewopts.Column) int {
	switch col {
	case viewopts.ColID:
		return int(a.Task.ID - b.Task.ID)
	case viewopts.ColDescription:
		return stringCompare(a.Task.Description, b.Task.Description)
	case viewopts.ColProject:
		return stringCompare(a.ProjectName, b.ProjectName)
	case viewopts.ColDue:
		return int64Compare(a.Task.DueTS, b.Task.DueTS)
	case viewopts.ColAlloc:
		return int64Compare(a.Task.AllocSecs, b.Task.AllocSecs)
	case viewopts.ColPriority:
		if a.Priority < b.Priority {
			return -1
		} else if a.Priority > b.Priority {
			return 1
		}
		return 0
	case viewopts.ColClock:
		return int(a.LoggedSecs - b.LoggedSecs)
	case viewopts.ColStatus:
		return stringCompare(string(a.Task.Status), string(b.Task.Status))
	case viewopts.ColKanban:
		return stringCompare(string(a.Kanban), string(b.Kanban))
	}
	return 0
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func int64Compare(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func insertionSort(rows []taskRow, less func(i, j int) bool) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
