package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/ledger"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/ui"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects (add, list, rename, archive, unarchive, report)",
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			p, err := tx.Projects.Create(ctx, args[0])
			if err != nil {
				return err
			}
			printf("Created project %s (id %d)\n", p.Name, p.ID)
			return nil
		})
	},
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		includeArchived, _ := cmd.Flags().GetBool("archived")
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			projects, err := tx.Projects.List(ctx, includeArchived)
			if err != nil {
				return err
			}
			if jsonOutput {
				outputJSON(projects)
				return nil
			}
			if len(projects) == 0 {
				printf("%s\n", ui.RenderMuted("No projects."))
				return nil
			}
			for _, p := range projects {
				status := ""
				if p.IsArchived {
					status = " " + ui.RenderMuted("(archived)")
				}
				printf("%s%s\n", p.Name, status)
			}
			return nil
		})
	},
}

var projectsRenameCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a project, merging into an existing target if one exists",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			if !force && args[0] != args[1] {
				if _, err := tx.Projects.GetByName(ctx, args[1]); err == nil {
					if !ui.PromptYesNo("project \""+args[1]+"\" already exists; merge into it?", false) {
						return cmdUserError("rename cancelled")
					}
				}
			}
			p, err := tx.Projects.Rename(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printf("Renamed project to %s (id %d)\n", p.Name, p.ID)
			return nil
		})
	},
}

var projectsArchiveCmd = &cobra.Command{
	Use:   "archive <name>",
	Short: "Archive a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			if err := tx.Projects.Archive(ctx, args[0]); err != nil {
				return err
			}
			printf("Archived project %s\n", args[0])
			return nil
		})
	},
}

var projectsUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <name>",
	Short: "Unarchive a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			if err := tx.Projects.Unarchive(ctx, args[0]); err != nil {
				return err
			}
			printf("Unarchived project %s\n", args[0])
			return nil
		})
	},
}

// projectReportRow is one project's task-count-by-status breakdown,
// grounded on the teacher's grouped-count rendering in cmd/bd/count.go.
type projectReportRow struct {
	Project  string         `json:"project"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

var projectsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize task counts per project by status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withTx(func(ctx context.Context, tx *ledger.Tx) error {
			projects, err := tx.Projects.List(ctx, true)
			if err != nil {
				return err
			}
			tasks, err := tx.Tasks.ListAll(ctx)
			if err != nil {
				return err
			}
			byProject := map[int64]*projectReportRow{}
			for _, p := range projects {
				byProject[p.ID] = &projectReportRow{Project: p.Name, ByStatus: map[string]int{}}
			}
			noProject := &projectReportRow{Project: "(none)", ByStatus: map[string]int{}}
			for _, t := range tasks {
				row := noProject
				if t.ProjectID != nil {
					if r, ok := byProject[*t.ProjectID]; ok {
						row = r
					}
				}
				row.Total++
				row.ByStatus[string(t.Status)]++
			}
			var rows []projectReportRow
			for _, r := range byProject {
				rows = append(rows, *r)
			}
			if noProject.Total > 0 {
				rows = append(rows, *noProject)
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].Project < rows[j].Project })

			if jsonOutput {
				outputJSON(rows)
				return nil
			}
			for _, r := range rows {
				printf("%s: %d total\n", r.Project, r.Total)
				for _, s := range []types.Status{types.StatusOpen, types.StatusClosed, types.StatusCancelled} {
					if n := r.ByStatus[string(s)]; n > 0 {
						printf("  %s: %d\n", s, n)
					}
				}
			}
			return nil
		})
	},
}

func init() {
	projectsListCmd.Flags().Bool("archived", false, "include archived projects")
	projectsRenameCmd.Flags().Bool("force", false, "skip the merge confirmation prompt")

	projectsCmd.AddCommand(projectsAddCmd, projectsListCmd, projectsRenameCmd,
		projectsArchiveCmd, projectsUnarchiveCmd, projectsReportCmd)
	rootCmd.AddCommand(projectsCmd)
}
