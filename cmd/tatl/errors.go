package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/da11an/tatl/internal/ledger/project"
	"github.com/da11an/tatl/internal/ledger/session"
	"github.com/da11an/tatl/internal/ledger/stack"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/ui"
)

// exitUser and exitInternal are the two exit codes spec.md §7 assigns to
// user errors (unknown id, ambiguous abbreviation, validation failure,
// filter/respawn parse error, stack/session rule violation) versus internal
// errors (store I/O failure, invariant violation, migration failure).
const (
	exitOK       = 0
	exitUser     = 1
	exitInternal = 2
)

// fatalUser prints "Error: ..." and exits 1.
func fatalUser(format string, args ...any) {
	fmt.Fprintf(os.Stderr, ui.RenderFail("Error: ")+format+"\n", args...)
	os.Exit(exitUser)
}

// fatalInternal prints "Internal error: ..." and exits 2.
func fatalInternal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, ui.RenderFail("Internal error: ")+format+"\n", args...)
	os.Exit(exitInternal)
}

// isUserError classifies the errors a repo call can return: anything the
// repos define as a named sentinel or validation failure is a user error;
// anything else (I/O, scan failures wrapped with fmt.Errorf from the store
// layer) is treated as internal (spec.md §7).
func isUserError(err error) bool {
	var cmdErr cmdUserErrorT
	switch {
	case errors.As(err, &cmdErr):
		return true
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, project.ErrDuplicate),
		errors.Is(err, stack.ErrNotFound),
		errors.Is(err, stack.ErrTaskNotFound),
		errors.Is(err, stack.ErrTaskTerminal),
		errors.Is(err, stack.ErrTaskExternal),
		errors.Is(err, stack.ErrEmptyStack),
		errors.Is(err, stack.ErrInvalidSortField),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrAlreadyOpen),
		errors.Is(err, session.ErrOpenSession),
		errors.Is(err, session.ErrInvalidInterval):
		return true
	}
	return false
}

// cmdUserError wraps a message a command body already knows is a user error
// (e.g. a cancelled confirmation prompt) so withTx's dieOnCommandError routes
// it to exit code 1 without needing a sentinel to match against.
type cmdUserErrorT struct{ msg string }

func (e cmdUserErrorT) Error() string { return e.msg }

func cmdUserError(msg string) error { return cmdUserErrorT{msg} }

// dieOnCommandError applies the user-vs-internal classification and exits
// with the matching code and prefix. Call sites that already know an error
// is a user error (validation performed before any mutation, spec.md §7)
// should call fatalUser directly instead.
func dieOnCommandError(err error) {
	if isUserError(err) {
		fatalUser("%v", err)
	}
	fatalInternal("%v", err)
}
