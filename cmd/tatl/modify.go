package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/task"
)

var modifyCmd = &cobra.Command{
	Use:   "modify <id> <field tokens...>",
	Short: "Change a task's description, fields, tags or UDAs",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		fields, err := parseFieldTokens(args[1:])
		if err != nil {
			fatalUser("%v", err)
		}

		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			now := tx.Clock.Now()
			loc := tx.Clock.Location()

			projectOpt, err := resolveProjectOpt(ctx, tx, fields.Project)
			if err != nil {
				return err
			}
			dueOpt, err := resolveDateField(fields.Due, now, loc)
			if err != nil {
				return err
			}
			scheduledOpt, err := resolveDateField(fields.Scheduled, now, loc)
			if err != nil {
				return err
			}
			waitOpt, err := resolveDateField(fields.Wait, now, loc)
			if err != nil {
				return err
			}
			allocOpt, err := resolveDurationField(fields.Allocation)
			if err != nil {
				return err
			}

			params := task.ModifyParams{
				ProjectID:    projectOpt,
				DueTS:        dueOpt,
				ScheduledTS:  scheduledOpt,
				WaitTS:       waitOpt,
				AllocSecs:    allocOpt,
				Template:     fields.Template,
				Respawn:      fields.Respawn,
				TagsToAdd:    fields.TagsToAdd,
				TagsToRemove: fields.TagsToRemove,
				UDAsToSet:    fields.UDAsToSet,
				UDAsToRemove: fields.UDAsToRemove,
			}
			if len(fields.DescWords) > 0 {
				params.Description = task.SetOpt(strings.Join(fields.DescWords, " "))
			}

			t, err := tx.Tasks.Modify(ctx, id, params)
			if err != nil {
				return err
			}
			printf("Modified task %d: %s\n", t.ID, t.Description)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(modifyCmd)
}
