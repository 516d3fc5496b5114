package respawn_test

import (
	"testing"
	"time"

	"github.com/da11an/tatl/internal/respawn"
	"github.com/da11an/tatl/internal/respawn/rule"
)

func mustParse(t *testing.T, s string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return r
}

func TestNextOccurrenceDaily(t *testing.T) {
	r := mustParse(t, "daily")
	from := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Year() != 2026 || got.Month() != 3 || got.Day() != 2 {
		t.Fatalf("expected 2026-03-02, got %v", got)
	}
}

func TestNextOccurrenceMonthlyClampsShortMonth(t *testing.T) {
	r := mustParse(t, "monthly")
	jan31 := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, jan31, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Year() != 2026 || got.Month() != time.February || got.Day() != 28 {
		t.Fatalf("expected 2026-02-28 (clamped, non-leap), got %v", got)
	}
}

func TestNextOccurrencePreservesTimeOfDayFromOriginalDue(t *testing.T) {
	r := mustParse(t, "daily")
	from := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC).Unix()
	due := time.Date(2026, 2, 28, 14, 30, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, &due, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Hour() != 14 || got.Minute() != 30 {
		t.Fatalf("expected time-of-day 14:30 preserved, got %v", got)
	}
}

func TestNextOccurrenceEveryUnit(t *testing.T) {
	r := mustParse(t, "every:3d")
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Day() != 4 || got.Month() != time.March {
		t.Fatalf("expected 2026-03-04, got %v", got)
	}
}

func TestNextOccurrenceWeekdaysSearchesForward(t *testing.T) {
	r := mustParse(t, "weekdays:mon,fri")
	// 2026-03-02 is a Monday.
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Weekday() != time.Friday || got.Day() != 6 {
		t.Fatalf("expected next Friday 2026-03-06, got %v (%s)", got, got.Weekday())
	}
}

func TestNextOccurrenceMonthdaysSkipsInvalidDay(t *testing.T) {
	r := mustParse(t, "monthdays:31")
	// From Feb 1 (no 31st): should land on March 31.
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Month() != time.March || got.Day() != 31 {
		t.Fatalf("expected 2026-03-31 (Feb has no 31st), got %v", got)
	}
}

func TestNextOccurrenceNthAdvancesWhenFifthMissing(t *testing.T) {
	r := mustParse(t, "nth:5:mon")
	// March 2026 has five Mondays (2,9,16,23,30), so use April 2026, which
	// has only four (6,13,20,27).
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Unix()
	next := respawn.NextOccurrence(r, from, nil, time.UTC)
	got := time.Unix(next, 0).In(time.UTC)
	if got.Weekday() != time.Monday {
		t.Fatalf("expected a Monday, got %v (%s)", got, got.Weekday())
	}
	if got.Month() == time.April {
		t.Fatalf("expected engine to advance past April (only 4 Mondays), got %v", got)
	}
}
