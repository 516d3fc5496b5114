package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/dateparse"
	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/ui"
)

func durationString(secs int64) string {
	return (time.Duration(secs) * time.Second).String()
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage time-tracking sessions directly (list, show, modify, delete, add, report)",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list [task-id]",
	Short: "List sessions, optionally restricted to one task",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			var sessions []sessionRow
			if len(args) == 1 {
				id, err := parseTaskID(args[0])
				if err != nil {
					return cmdUserError(err.Error())
				}
				ss, err := tx.Sessions.GetByTask(ctx, id)
				if err != nil {
					return err
				}
				for _, s := range ss {
					sessions = append(sessions, sessionRow{s.ID, s.TaskID, s.StartTS, s.EndTS})
				}
			} else {
				ss, err := tx.Sessions.ListAll(ctx)
				if err != nil {
					return err
				}
				for _, s := range ss {
					sessions = append(sessions, sessionRow{s.ID, s.TaskID, s.StartTS, s.EndTS})
				}
			}
			if jsonOutput {
				outputJSON(sessions)
				return nil
			}
			if len(sessions) == 0 {
				printf("%s\n", ui.RenderMuted("No sessions."))
				return nil
			}
			for _, s := range sessions {
				printf("#%d task %d  %s -> %s\n", s.ID, s.TaskID, formatTS(s.StartTS), endLabel(s.EndTS))
			}
			return nil
		})
	},
}

type sessionRow struct {
	ID     int64  `json:"id"`
	TaskID int64  `json:"task_id"`
	Start  int64  `json:"start_ts"`
	End    *int64 `json:"end_ts,omitempty"`
}

func endLabel(end *int64) string {
	if end == nil {
		return "(open)"
	}
	return formatTS(*end)
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session's detail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			sessions, err := tx.Sessions.ListAll(ctx)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				if s.ID != id {
					continue
				}
				if jsonOutput {
					outputJSON(sessionRow{s.ID, s.TaskID, s.StartTS, s.EndTS})
					return nil
				}
				printf("Session #%d on task %d\n", s.ID, s.TaskID)
				printf("Start: %s\n", formatTS(s.StartTS))
				printf("End: %s\n", endLabel(s.EndTS))
				return nil
			}
			return cmdUserError("session not found")
		})
	},
}

// sessionModifyChange holds the parsed start/end tokens for sessionsModifyCmd.
// start/end nil means "leave unchanged"; endProvided distinguishes "end not
// given" from "end=none" (end cleared, reopening the session).
type sessionModifyChange struct {
	start       *int64
	end         *int64
	endProvided bool
}

var sessionsModifyCmd = &cobra.Command{
	Use:   "modify <session-id> start=<time>|end=<time>",
	Short: "Directly edit a session's start or end time",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		force, _ := cmd.Flags().GetBool("force")
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			now := tx.Clock.Now()
			loc := tx.Clock.Location()

			sessions, err := tx.Sessions.ListAll(ctx)
			if err != nil {
				return err
			}
			var current *types.Session
			for i := range sessions {
				if sessions[i].ID == id {
					current = &sessions[i]
					break
				}
			}
			if current == nil {
				return cmdUserError("session not found")
			}

			var change sessionModifyChange
			for _, tok := range args[1:] {
				key, value, ok := splitFieldToken(tok)
				if !ok {
					return cmdUserError("invalid token " + tok + "; expected start=<time> or end=<time>")
				}
				switch key {
				case "start":
					ts, err := dateparse.ParseDate(value, now, loc)
					if err != nil {
						return err
					}
					change.start = &ts
				case "end":
					change.endProvided = true
					if value == "" || value == "none" {
						change.end = nil
						continue
					}
					ts, err := dateparse.ParseDate(value, now, loc)
					if err != nil {
						return err
					}
					change.end = &ts
				default:
					return cmdUserError("unrecognized session field " + key)
				}
			}

			// Refuse to reopen the currently-running session: it is already
			// open, there is nothing to clear (original_source's
			// handle_sessions_modify: "Cannot clear end time of a running
			// session").
			if current.EndTS == nil && change.endProvided && change.end == nil {
				return cmdUserError("cannot clear end time of a running session; it is already open")
			}

			newStart := current.StartTS
			if change.start != nil {
				newStart = *change.start
			}
			newEnd := current.EndTS
			if change.endProvided {
				newEnd = change.end
			}

			// Refuse edits that would overlap another closed session on the
			// same task unless --force is given (spec.md §4.6 "Used by the
			// session-edit command to refuse or force-through edits";
			// original_source's check_session_overlaps/format_conflict_error).
			if newEnd != nil {
				conflicts, err := tx.Sessions.FindOverlappingSessions(ctx, current.TaskID, newStart, *newEnd, id)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 && !force {
					return cmdUserError(formatSessionConflictError(id, current.TaskID, newStart, newEnd, conflicts))
				}
			}

			if change.start != nil {
				if err := tx.Sessions.ModifyStartTime(ctx, id, newStart); err != nil {
					return err
				}
			}
			if change.endProvided {
				if err := tx.Sessions.ModifyEndTime(ctx, id, change.end); err != nil {
					return err
				}
			}
			printf("Modified session %d\n", id)
			return nil
		})
	},
}

// formatSessionConflictError renders the conflicting sessions a modification
// would overlap, mirroring original_source's format_conflict_error.
func formatSessionConflictError(id, taskID int64, newStart int64, newEnd *int64, conflicts []types.Session) string {
	msg := fmt.Sprintf("session %d (task %d): %s -> %s\n  conflicts with:\n",
		id, taskID, formatTS(newStart), endLabel(newEnd))
	for _, c := range conflicts {
		msg += fmt.Sprintf("    session %d (task %d): %s -> %s\n", c.ID, c.TaskID, formatTS(c.StartTS), endLabel(c.EndTS))
	}
	msg += "use --force to override"
	return msg
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a closed session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			if err := tx.Sessions.Delete(ctx, id); err != nil {
				return err
			}
			printf("Deleted session %d\n", id)
			return nil
		})
	},
}

var sessionsAddCmd = &cobra.Command{
	Use:   "add <task-id> <start>..<end>",
	Short: "Record a historical session directly, same as onoff",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseTaskID(args[0])
		if err != nil {
			fatalUser("%v", err)
		}
		startStr, endStr, ok := strings.Cut(args[1], "..")
		if !ok {
			fatalUser("invalid time range %q: expected <start>..<end>", args[1])
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

type sessionReportRow struct {
	TaskID     int64  `json:"task_id"`
	LoggedSecs int64  `json:"logged_secs"`
	Logged     string `json:"logged"`
}

var sessionsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize total logged time per task",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			sessions, err := tx.Sessions.ListAll(ctx)
			if err != nil {
				return err
			}
			now := tx.Clock.Now()
			totals := map[int64]int64{}
			for _, s := range sessions {
				end := now
				if s.EndTS != nil {
					end = *s.EndTS
				}
				totals[s.TaskID] += end - s.StartTS
			}
			var rows []sessionReportRow
			for taskID, secs := range totals {
				rows = append(rows, sessionReportRow{taskID, secs, durationString(secs)})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].LoggedSecs > rows[j].LoggedSecs })

			if jsonOutput {
				outputJSON(rows)
				return nil
			}
			if len(rows) == 0 {
				printf("%s\n", ui.RenderMuted("No sessions."))
				return nil
			}
			for _, r := range rows {
				printf("task %d: %s\n", r.TaskID, r.Logged)
			}
			return nil
		})
	},
}

func init() {
	sessionsModifyCmd.Flags().Bool("force", false, "apply the edit even if it overlaps another session")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsModifyCmd,
		sessionsDeleteCmd, sessionsAddCmd, sessionsReportCmd)
	rootCmd.AddCommand(sessionsCmd)
}
