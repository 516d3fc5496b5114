package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/task"
)

var addCmd = &cobra.Command{
	Use:   "add <description words and field tokens>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fields, err := parseFieldTokens(args)
		if err != nil {
			fatalUser("%v", err)
		}
		desc := strings.Join(fields.DescWords, " ")
		if desc == "" {
			fatalUser("a task needs a description")
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

			params := task.CreateFullParams{
				Description: desc,
				Tags:        fields.TagsToAdd,
				UDAs:        fields.UDAsToSet,
			}
			if projectOpt.IsSet() {
				v := projectOpt.Value()
				params.ProjectID = &v
			}
			if dueOpt.IsSet() {
				v := dueOpt.Value()
				params.DueTS = &v
			}
			if scheduledOpt.IsSet() {
				v := scheduledOpt.Value()
				params.ScheduledTS = &v
			}
			if waitOpt.IsSet() {
				v := waitOpt.Value()
				params.WaitTS = &v
			}
			if allocOpt.IsSet() {
				v := allocOpt.Value()
				params.AllocSecs = &v
			}
			if fields.Template.IsSet() {
				v := fields.Template.Value()
				params.Template = &v
			}
			if fields.Respawn.IsSet() {
				v := fields.Respawn.Value()
				params.Respawn = &v
			}

			t, err := tx.Tasks.CreateFull(ctx, params)
			if err != nil {
				return err
			}

			if jsonOutput {
				outputJSON(toTaskJSON(*t, fields.Project.Value(), fields.TagsToAdd, ""))
				return nil
			}
			printf("Created task %d: %s\n", t.ID, t.Description)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
