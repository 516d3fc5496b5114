package dateparse_test

import (
	"testing"
	"time"

	"github.com/da11an/tatl/internal/dateparse"
)

func TestParseDateAbsolute(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	got, err := dateparse.ParseDate("2026-03-15", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestParseDateAbsoluteWithTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	got, err := dateparse.ParseDate("2026-03-15T09:30", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestParseDateNamedAnchors(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC).Unix() // a Wednesday
	cases := map[string]time.Time{
		"today":    time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		"tomorrow": time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		"eod":      time.Date(2026, 3, 4, 23, 59, 59, 0, time.UTC),
		"eow":      time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC), // next Sunday
		"eom":      time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
	}
	for expr, want := range cases {
		got, err := dateparse.ParseDate(expr, now, time.UTC)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", expr, err)
		}
		if got != want.Unix() {
			t.Errorf("%q: got %v want %v", expr, time.Unix(got, 0).UTC(), want)
		}
	}
}

func TestParseDateRelativeOffsets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	got, err := dateparse.ParseDate("+2d", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}

	got, err = dateparse.ParseDate("-1w", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want = time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}

	got, err = dateparse.ParseDate("2w", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestParseDateTimeOnlyWindow(t *testing.T) {
	// now = 10:00; "09:00" is 1h in the past, well inside [-8h, +16h];
	// future candidate (tomorrow 09:00) is 23h away. Past should win.
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC).Unix()
	got, err := dateparse.ParseDate("09:00", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %v want %v", time.Unix(got, 0).UTC(), time.Unix(want, 0).UTC())
	}
}

func TestParseDateTimeOnlyPrefersFutureWhenClose(t *testing.T) {
	// now = 11:55; past candidate 12:00 yesterday is 23h55m away, future
	// candidate 12:00 today is 5m away -- future should win regardless.
	now := time.Date(2026, 3, 4, 11, 55, 0, 0, time.UTC).Unix()
	got, err := dateparse.ParseDate("noon", now, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC).Unix()
	if got != want {
		t.Fatalf("got %v want %v", time.Unix(got, 0).UTC(), time.Unix(want, 0).UTC())
	}
}

func TestParseDurationCanonical(t *testing.T) {
	got, err := dateparse.ParseDuration("1d2h30m")
	if err != nil {
		t.Fatalf("ParseDuration: %v", err)
	}
	want := int64(86400 + 2*3600 + 30*60)
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestParseDurationRejectsEmptyOrZero(t *testing.T) {
	if _, err := dateparse.ParseDuration(""); err == nil {
		t.Fatalf("expected error for empty duration")
	}
	if _, err := dateparse.ParseDuration("0s"); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if _, err := dateparse.ParseDuration("bogus"); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
