package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ui"
)

// finishCmd maps to task.Repo.Close ("completed" in the teacher's done/close
// split, original_source/tests/done_tests.rs): given no id it finishes
// whatever task the open session is running on, erroring if no session is
// open or the stack is empty; given an id it finishes that task outright.
var finishCmd = &cobra.Command{
	Use:   "finish [id]",
	Short: "Mark a task completed, closing any open session on it first",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			id, err := lifecycleTargetID(ctx, tx, args)
			if err != nil {
				return err
			}
			if open, err := tx.Sessions.GetOpen(ctx); err != nil {
				return err
			} else if open != nil && open.TaskID == id {
				if _, _, err := tx.Sessions.CloseOpen(ctx, tx.Clock.Now()); err != nil {
					return err
				}
			}
			t, err := tx.Tasks.Close(ctx, id)
			if err != nil {
				return err
			}
			printf("Finished task %d: %s\n", t.ID, t.Description)
			return nil
		})
	},
}

// closeCmd maps to task.Repo.Cancel: the task is abandoned rather than
// completed, but still triggers respawn and leaves the stack the same way
// (original_source/tests/done_tests.rs distinguishes finish-completes from
// close-cancels).
var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Cancel a task without marking it completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			t, err := tx.Tasks.Cancel(ctx, id)
			if err != nil {
				return err
			}
			printf("Cancelled task %d: %s\n", t.ID, t.Description)
			return nil
		})
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a closed or cancelled task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			t, err := tx.Tasks.Reopen(ctx, id)
			if err != nil {
				return err
			}
			printf("Reopened task %d: %s\n", t.ID, t.Description)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Permanently delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		if !yesFlag && !ui.PromptYesNo("permanently delete task "+args[0]+"?", false) {
			fatalUser("delete cancelled")
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			return tx.Tasks.Delete(ctx, id)
		})
		printf("Deleted task %d\n", id)
	},
}

// lifecycleTargetID resolves finish's optional task-id argument: explicit id
// if given. Otherwise it requires the stack to be non-empty (original_source
// tests/done_tests.rs: test_finish_errors_if_stack_empty) and an open session
// (test_finish_errors_if_no_session_running), then finishes whatever task
// that session is running on.
func lifecycleTargetID(ctx context.Context, tx *ledger.Tx, args []string) (int64, error) {
	if len(args) == 1 {
		return parseTaskID(args[0])
	}
	stackID, err := tx.DefaultStackID(ctx)
	if err != nil {
		return 0, err
	}
	items, err := tx.Stacks.GetItems(ctx, stackID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, cmdUserError("Stack is empty")
	}
	open, err := tx.Sessions.GetOpen(ctx)
	if err != nil {
		return 0, err
	}
	if open == nil {
		return 0, cmdUserError("No session is running")
	}
	return open.TaskID, nil
}

func init() {
	rootCmd.AddCommand(finishCmd, closeCmd, reopenCmd, deleteCmd)
}
