package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/ui"
	"github.com/da11an/tatl/internal/viewopts"
)

// outputJSON marshals v as indented JSON to stdout (spec.md §6.1 "--json").
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalInternal("encoding JSON: %v", err)
	}
}

// taskJSON is the canonical §3 field-name projection of a task for --json
// output, shared by every listing/show command so plain-text and JSON
// rendering stay in parity (original_source/tests/output_tests.rs).
type taskJSON struct {
	ID          int64             `json:"id"`
	UUID        string            `json:"uuid"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Project     string            `json:"project,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	DueTS       *int64            `json:"due_ts,omitempty"`
	ScheduledTS *int64            `json:"scheduled_ts,omitempty"`
	WaitTS      *int64            `json:"wait_ts,omitempty"`
	AllocSecs   *int64            `json:"alloc_secs,omitempty"`
	Template    *string           `json:"template,omitempty"`
	Respawn     *string           `json:"respawn,omitempty"`
	UDAs        map[string]string `json:"udas,omitempty"`
	CreatedTS   int64             `json:"created_ts"`
	ModifiedTS  int64             `json:"modified_ts"`
	ActivityTS  int64             `json:"activity_ts"`
	Kanban      string            `json:"kanban,omitempty"`
}

func toTaskJSON(t types.Task, projectName string, tags []string, kanban types.Stage) taskJSON {
	return taskJSON{
		ID: t.ID, UUID: t.UUID, Description: t.Description, Status: string(t.Status),
		Project: projectName, Tags: tags, DueTS: t.DueTS, ScheduledTS: t.ScheduledTS,
		WaitTS: t.WaitTS, AllocSecs: t.AllocSecs, Template: t.Template, Respawn: t.Respawn,
		UDAs: t.UDAs, CreatedTS: t.CreatedTS, ModifiedTS: t.ModifiedTS, ActivityTS: t.ActivityTS,
		Kanban: string(kanban),
	}
}

// renderTaskTable renders rows as a lipgloss table honoring opt.Hide, or
// prints "No matching tasks." if rows is empty.
func renderTaskTable(rows []taskRow, opt viewopts.Options) {
	if len(rows) == 0 {
		fmt.Println(ui.RenderMuted("No matching tasks."))
		return
	}

	cols := visibleColumns(opt)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = strings.ToUpper(string(c))
	}

	t := ui.NewSearchTable(ui.GetWidth())
	t.Headers(headers...)
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = r.cell(c)
		}
		t.Row(cells...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return ui.TableHeaderStyle
		}
		return lipgloss.NewStyle()
	})
	fmt.Println(t.Render())
}

// taskRow is the plain-text rendering source for one listing row, holding
// exactly what every viewopts.Column can need (spec.md §4.10).
type taskRow struct {
	Task        types.Task
	ProjectName string
	Tags        []string
	Kanban      types.Stage
	LoggedSecs  int64
	Priority    float64
	Now         int64
}

func (r taskRow) cell(c viewopts.Column) string {
	switch c {
	case viewopts.ColID:
		return fmt.Sprintf("%d", r.Task.ID)
	case viewopts.ColDescription:
		return r.Task.Description
	case viewopts.ColKanban:
		return string(r.Kanban)
	case viewopts.ColProject:
		return r.ProjectName
	case viewopts.ColTags:
		return strings.Join(r.Tags, ",")
	case viewopts.ColDue:
		if r.Task.DueTS == nil {
			return ""
		}
		return humanize.Time(time.Unix(*r.Task.DueTS, 0))
	case viewopts.ColAlloc:
		if r.Task.AllocSecs == nil {
			return ""
		}
		return (time.Duration(*r.Task.AllocSecs) * time.Second).String()
	case viewopts.ColPriority:
		return fmt.Sprintf("%.1f", r.Priority)
	case viewopts.ColClock:
		if r.LoggedSecs == 0 {
			return ""
		}
		return (time.Duration(r.LoggedSecs) * time.Second).String()
	case viewopts.ColStatus:
		return string(r.Task.Status)
	}
	return ""
}

var defaultColumns = []viewopts.Column{
	viewopts.ColID, viewopts.ColDescription, viewopts.ColProject, viewopts.ColTags,
	viewopts.ColDue, viewopts.ColKanban,
}

func visibleColumns(opt viewopts.Options) []viewopts.Column {
	var cols []viewopts.Column
	for _, c := range defaultColumns {
		if opt.Visible(c) {
			cols = append(cols, c)
		}
	}
	return cols
}
