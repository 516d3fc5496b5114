package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ui"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <id>",
	Short: "Add a task to the default stack",
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
			if err := tx.Stacks.Enqueue(ctx, stackID, id); err != nil {
				return err
			}
			printf("Enqueued task %d\n", id)
			return nil
		})
	},
}

var dequeueCmd = &cobra.Command{
	Use:   "dequeue <id>",
	Short: "Remove a task from the default stack",
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
			if err := tx.Stacks.RemoveTask(ctx, stackID, id); err != nil {
				return err
			}
			printf("Dequeued task %d\n", id)
			return nil
		})
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and reorder the default stack",
}

// queueShowCmd and the pick/roll/drop/clear subcommands supplement spec.md
// §6.1's literal `queue {sort}` surface: stack.Repo already implements each
// of these operations (Pick/Roll/Drop/Clear/GetItems), grounded on the
// original's StackCommands{Show,Pick,Roll,Drop,Clear} enum
// (original_source/src/cli/commands.rs).
var queueShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the default stack in order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			items, err := tx.Stacks.GetItems(ctx, stackID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printf("%s\n", ui.RenderMuted("Stack is empty."))
				return nil
			}
			for i, it := range items {
				t, err := tx.Tasks.GetByID(ctx, it.TaskID)
				if err != nil {
					return err
				}
				printf("%d. [%d] %s\n", i, t.ID, t.Description)
			}
			return nil
		})
	},
}

var queuePickCmd = &cobra.Command{
	Use:   "pick <index>",
	Short: "Move the item at index to the top of the stack",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			fatalUser("invalid index %q", args[0])
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			if err := tx.Stacks.Pick(ctx, stackID, idx); err != nil {
				return err
			}
			printf("Picked index %d to the top\n", idx)
			return nil
		})
	},
}

var queueRollCmd = &cobra.Command{
	Use:   "roll <n>",
	Short: "Rotate the stack by n positions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fatalUser("invalid count %q", args[0])
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			if err := tx.Stacks.Roll(ctx, stackID, n); err != nil {
				return err
			}
			printf("Rolled stack by %d\n", n)
			return nil
		})
	},
}

var queueDropCmd = &cobra.Command{
	Use:   "drop <index>",
	Short: "Remove the item at index from the stack",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			fatalUser("invalid index %q", args[0])
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			if err := tx.Stacks.Drop(ctx, stackID, idx); err != nil {
				return err
			}
			printf("Dropped index %d\n", idx)
			return nil
		})
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item from the stack",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			if err := tx.Stacks.Clear(ctx, stackID); err != nil {
				return err
			}
			printf("Cleared stack\n")
			return nil
		})
	},
}

var queueSortCmd = &cobra.Command{
	Use:   "sort <field>",
	Short: "Reorder the stack by a task field, UDA, or priority",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			stackID, err := tx.DefaultStackID(ctx)
			if err != nil {
				return err
			}
			if err := tx.Stacks.SortByField(ctx, stackID, args[0]); err != nil {
				return err
			}
			printf("Sorted stack by %s\n", args[0])
			return nil
		})
	},
}

func init() {
	queueCmd.AddCommand(queueShowCmd, queuePickCmd, queueRollCmd, queueDropCmd, queueClearCmd, queueSortCmd)
	rootCmd.AddCommand(enqueueCmd, dequeueCmd, queueCmd)
}
