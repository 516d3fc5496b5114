package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <id> <note...>",
	Short: "Attach a timestamped note to a task",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		note := strings.Join(args[1:], " ")

		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			var sessionID *int64
			if open, err := tx.Sessions.GetOpen(ctx); err != nil {
				return err
			} else if open != nil && open.TaskID == id {
				sessionID = &open.ID
			}
			a, err := tx.Annotations.Add(ctx, id, note, tx.Clock.Now(), sessionID)
			if err != nil {
				return err
			}
			printf("Annotated task %d (annotation %d)\n", id, a.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)
}
