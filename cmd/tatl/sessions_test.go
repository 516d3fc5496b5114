package main

import (
	"strings"
	"testing"

	"github.com/da11an/tatl/internal/ledger/types"
)

func TestFormatSessionConflictErrorMentionsForce(t *testing.T) {
	end := int64(1_700_003_600)
	conflicts := []types.Session{
		{ID: 9, TaskID: 2, StartTS: 1_700_000_500, EndTS: &end},
	}
	msg := formatSessionConflictError(5, 2, 1_700_000_000, &end, conflicts)

	if !strings.Contains(msg, "session 5 (task 2)") {
		t.Errorf("message missing target session header: %q", msg)
	}
	if !strings.Contains(msg, "session 9 (task 2)") {
		t.Errorf("message missing conflicting session: %q", msg)
	}
	if !strings.Contains(msg, "--force") {
		t.Errorf("message missing --force hint: %q", msg)
	}
}

func TestEndLabelOpenVsClosed(t *testing.T) {
	if got := endLabel(nil); got != "(open)" {
		t.Errorf("endLabel(nil) = %q, want %q", got, "(open)")
	}
	ts := int64(1_700_000_000)
	if got := endLabel(&ts); got == "(open)" {
		t.Errorf("endLabel(&ts) = %q, want a formatted timestamp", got)
	}
}
