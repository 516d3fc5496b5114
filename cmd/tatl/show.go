package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task's full detail, sessions, annotations and externals",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			t, err := tx.Tasks.GetByID(ctx, id)
			if err != nil {
				return err
			}
			row, err := buildTaskRow(ctx, tx, *t, stackID, tx.Clock.Now())
			if err != nil {
				return err
			}

			if jsonOutput {
				outputJSON(toTaskJSON(*t, row.ProjectName, row.Tags, row.Kanban))
				return nil
			}

			annotations, err := tx.Annotations.GetByTask(ctx, id)
			if err != nil {
				return err
			}
			sessions, err := tx.Sessions.GetByTask(ctx, id)
			if err != nil {
				return err
			}
			externals, err := tx.Externals.GetByTask(ctx, id)
			if err != nil {
				return err
			}

			printf("Task %d: %s\n", t.ID, t.Description)
			printf("Status: %s  Kanban: %s\n", t.Status, row.Kanban)
			if row.ProjectName != "" {
				printf("Project: %s\n", row.ProjectName)
			}
			if len(row.Tags) > 0 {
				printf("Tags: %s\n", joinTags(row.Tags))
			}
			if t.DueTS != nil {
				printf("Due: %s\n", formatTS(*t.DueTS))
			}
			if t.ScheduledTS != nil {
				printf("Scheduled: %s\n", formatTS(*t.ScheduledTS))
			}
			if t.WaitTS != nil {
				printf("Wait: %s\n", formatTS(*t.WaitTS))
			}
			if t.AllocSecs != nil {
				printf("Allocation: %s\n", time.Duration(*t.AllocSecs)*time.Second)
			}
			if t.Respawn != nil {
				printf("Respawn: %s\n", *t.Respawn)
			}
			if len(t.UDAs) > 0 {
				for k, v := range t.UDAs {
					printf("  %s: %s\n", k, v)
				}
			}

			if len(annotations) > 0 {
				printf("\nAnnotations:\n")
				for _, a := range annotations {
					printf("  [%s] %s\n", formatTS(a.EntryTS), ui.RenderMarkdown(a.Note))
				}
			}
			if len(sessions) > 0 {
				printf("\nSessions:\n")
				for _, s := range sessions {
					if s.EndTS == nil {
						printf("  #%d %s -> (open)\n", s.ID, formatTS(s.StartTS))
					} else {
						printf("  #%d %s -> %s\n", s.ID, formatTS(s.StartTS), formatTS(*s.EndTS))
					}
				}
			}
			if len(externals) > 0 {
				printf("\nExternals:\n")
				for _, e := range externals {
					status := "active"
					if e.ReturnedTS != nil {
						status = "returned " + formatTS(*e.ReturnedTS)
					}
					printf("  -> %s (%s)\n", e.Recipient, status)
				}
			}
			return nil
		})
	},
}

func formatTS(ts int64) string {
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}

func init() {
	rootCmd.AddCommand(showCmd)
}
