package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/da11an/tatl/internal/config"
	"github.com/da11an/tatl/internal/ledger"
)

// Global state set up in main() / PersistentPreRun before any command body
// runs (spec.md §5: "each process owns one store handle exclusively").
var (
	ledgerHandle      *ledger.Ledger
	jsonOutput        bool
	autoCreateProject bool
	yesFlag           bool
	interactiveFlag   bool
	rootCtx           = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   "tatl",
	Short: "A single-user CLI task-and-time ledger",
	Long: `tatl tracks tasks, a lightweight work queue (the "stack"), and the time
spent on them. Most commands accept a common abbreviation: any unambiguous
prefix of a command or subcommand name is accepted (spec.md §6.1).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", config.GetBool("json"), "output as JSON")
	rootCmd.PersistentFlags().Bool("no-color", config.GetBool("no-color"), "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&autoCreateProject, "auto-create-project", "y", config.GetBool("auto-create-project"), "create a missing project automatically instead of prompting")
	rootCmd.PersistentFlags().BoolVar(&yesFlag, "yes", false, "skip confirmation prompts (delete)")
	rootCmd.PersistentFlags().BoolVar(&interactiveFlag, "interactive", false, "accepted but has no effect: no command performs bulk mutations")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			os.Setenv("TATL_NO_COLOR", "1")
		}
	}
}

// Execute rewrites os.Args through the abbreviation/task-id-first pre-pass
// (spec.md §6.1) and runs the cobra command tree. Errors surfaced by cobra
// itself (unknown flag, bad arg count) are user errors.
func Execute() {
	expanded, err := expandCommandAbbreviations(os.Args[1:])
	if err != nil {
		fatalUser("%v", err)
	}
	rootCmd.SetArgs(expanded)

	if err := rootCmd.Execute(); err != nil {
		fatalUser("%v", err)
	}
}

// withTx runs fn inside one ledger transaction and converts its error into
// the process's exit code, matching spec.md §5's "one transaction per
// command" and §7's error classification.
func withTx(fn func(ctx context.Context, tx *ledger.Tx) error) {
	err := ledgerHandle.Run(rootCtx, func(tx *ledger.Tx) error {
		return fn(rootCtx, tx)
	})
	if err != nil {
		dieOnCommandError(err)
	}
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
