package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/dateparse"
	"github.com/da11an/tatl/internal/ledger"
)

// onCmd starts a session on a task, closing any currently open session
// first (silently — no error if none was open). Matches
// original_source/tests/done_tests.rs's "on" / "on <id>" usage: with no id
// it resumes the task at the top of the default stack.
var onCmd = &cobra.Command{
	Use:   "on [id] [time]",
	Short: "Start a session on a task, auto-closing any open session first",
	Args:  cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, timeArg, err := splitIDAndTime(args)
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			taskID := id
			if taskID == 0 {
				resolved, err := currentStackTaskID(ctx, tx)
				if err != nil {
					return err
				}
				taskID = resolved
			}
			startTS, err := resolveInstant(tx, timeArg)
			if err != nil {
				return err
			}

			if open, err := tx.Sessions.GetOpen(ctx); err != nil {
				return err
			} else if open != nil {
				if _, _, err := tx.Sessions.CloseOpen(ctx, startTS); err != nil {
					return err
				}
			}

			s, notice, err := tx.Sessions.Create(ctx, taskID, startTS)
			if err != nil {
				return err
			}
			if notice != nil {
				printf("%s\n", notice.Message)
			}
			printf("Started session %d on task %d\n", s.ID, taskID)
			return nil
		})
	},
}

// offCmd closes the currently open session, erroring if none is open.
var offCmd = &cobra.Command{
	Use:   "off [time]",
	Short: "Close the currently open session",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var timeArg string
		if len(args) == 1 {
			timeArg = args[0]
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			endTS, err := resolveInstant(tx, timeArg)
			if err != nil {
				return err
			}
			s, notice, err := tx.Sessions.CloseOpen(ctx, endTS)
			if err != nil {
				return err
			}
			if notice != nil {
				printf("%s\n", notice.Message)
			}
			printf("Closed session %d on task %d\n", s.ID, s.TaskID)
			return nil
		})
	},
}

// onoffCmd records a historical, already-closed session directly, without
// touching whatever session is currently open. Grounded on
// original_source/tests/filter_pattern_tests.rs's
// `onoff <start>..<end> <task-id>` usage.
var onoffCmd = &cobra.Command{
	Use:   "onoff <start>..<end> <id>",
	Short: "Record a completed session for a time range already in the past",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[1])
		if err != nil {
			fatalUser("%v", err)
		}
		startStr, endStr, ok := strings.Cut(args[0], "..")
		if !ok {
			fatalUser("invalid time range %q: expected <start>..<end>", args[0])
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			now := tx.Clock.Now()
			loc := tx.Clock.Location()
			start, err := dateparse.ParseDate(startStr, now, loc)
			if err != nil {
				return err
			}
			end, err := dateparse.ParseDate(endStr, now, loc)
			if err != nil {
				return err
			}
			s, err := tx.Sessions.CreateClosed(ctx, id, start, end)
			if err != nil {
				return err
			}
			printf("Recorded session %d on task %d\n", s.ID, id)
			return nil
		})
	},
}

// offonCmd closes the currently open session and immediately reopens a new
// one on the same task — a break marker, requiring a session to already be
// open.
var offonCmd = &cobra.Command{
	Use:   "offon [time]",
	Short: "Close the open session and immediately reopen it on the same task",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var timeArg string
		if len(args) == 1 {
			timeArg = args[0]
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			ts, err := resolveInstant(tx, timeArg)
			if err != nil {
				return err
			}
			closed, notice, err := tx.Sessions.CloseOpen(ctx, ts)
			if err != nil {
				return err
			}
			if notice != nil {
				printf("%s\n", notice.Message)
			}
			s, notice2, err := tx.Sessions.Create(ctx, closed.TaskID, ts)
			if err != nil {
				return err
			}
			if notice2 != nil {
				printf("%s\n", notice2.Message)
			}
			printf("Closed session %d, started session %d on task %d\n", closed.ID, s.ID, closed.TaskID)
			return nil
		})
	},
}

// splitIDAndTime pulls an optional leading task-id and an optional trailing
// time expression out of on's positional args.
func splitIDAndTime(args []string) (id int64, timeArg string, err error) {
	switch len(args) {
	case 0:
		return 0, "", nil
	case 1:
		if parsed, perr := parseTaskID(args[0]); perr == nil {
			return parsed, "", nil
		}
		return 0, args[0], nil
	default:
		parsed, perr := parseTaskID(args[0])
		if perr != nil {
			return 0, "", perr
		}
		return parsed, args[1], nil
	}
}

// resolveInstant parses an optional time argument, defaulting to now.
func resolveInstant(tx *ledger.Tx, timeArg string) (int64, error) {
	if timeArg == "" {
		return tx.Clock.Now(), nil
	}
	return dateparse.ParseDate(timeArg, tx.Clock.Now(), tx.Clock.Location())
}

func init() {
	rootCmd.AddCommand(onCmd, offCmd, onoffCmd, offonCmd)
}
