// Package respawn computes next-occurrence timestamps from the grammar in
// internal/respawn/rule and creates the successor task when a respawning
// task terminates (spec.md §4.8). It depends on internal/ledger/task (for
// create_full); internal/ledger/task depends only on internal/respawn/rule,
// so this one-directional edge never cycles back.
package respawn

import (
	"context"
	"fmt"
	"time"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/respawn/rule"
	"github.com/da11an/tatl/internal/store"
)

// Engine implements task.Respawner: on termination of a respawning task it
// computes the next occurrence and creates the successor via create_full.
type Engine struct {
	Clock clock.Clock
	Tasks *task.Repo
}

func New(c clock.Clock, tasks *task.Repo) *Engine {
	return &Engine{Clock: c, Tasks: tasks}
}

// Spawn implements task.Respawner.
func (e *Engine) Spawn(ctx context.Context, q store.Queryer, original *types.Task, terminatedAt int64) error {
	if original.Respawn == nil || *original.Respawn == "" {
		return nil
	}
	r, err := rule.Parse(*original.Respawn)
	if err != nil {
		return fmt.Errorf("respawn: %w", err)
	}

	nextDue := NextOccurrence(r, terminatedAt, original.DueTS, e.Clock.Location())

	// Use the caller's Queryer (the transaction in progress) rather than
	// e.Tasks.Q, so the successor is created atomically with the
	// termination that spawned it.
	tr := task.New(q, e.Tasks.Clock, e.Tasks.Respawner)

	tags, err := tr.GetTags(ctx, original.ID)
	if err != nil {
		return fmt.Errorf("respawn: get tags: %w", err)
	}
	respawnCopy := *original.Respawn

	_, err = tr.CreateFull(ctx, task.CreateFullParams{
		Description: original.Description,
		ProjectID:   original.ProjectID,
		DueTS:       &nextDue,
		ScheduledTS: original.ScheduledTS,
		WaitTS:      original.WaitTS,
		AllocSecs:   original.AllocSecs,
		Template:    original.Template,
		Respawn:     &respawnCopy,
		UDAs:        copyUDAs(original.UDAs),
		Tags:        tags,
	})
	if err != nil {
		return fmt.Errorf("respawn: create successor: %w", err)
	}
	return nil
}

func copyUDAs(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NextOccurrence computes the next due timestamp for rule r, given the
// termination instant fromTS and the original due (nil => midnight) for
// time-of-day preservation, in loc (spec.md §4.8).
func NextOccurrence(r *rule.Rule, fromTS int64, originalDue *int64, loc *time.Location) int64 {
	from := time.Unix(fromTS, 0).In(loc)
	hour, min, sec := 0, 0, 0
	if originalDue != nil {
		d := time.Unix(*originalDue, 0).In(loc)
		hour, min, sec = d.Hour(), d.Minute(), d.Second()
	}

	var next time.Time
	switch r.Kind {
	case rule.Daily:
		next = addCalendar(from, 0, 0, 1)
	case rule.Weekly:
		next = addCalendar(from, 0, 0, 7)
	case rule.Monthly:
		next = addCalendarClamped(from, 0, 1, 0)
	case rule.Yearly:
		next = addCalendarClamped(from, 1, 0, 0)
	case rule.Every:
		switch r.EveryUnit {
		case rule.UnitDay:
			next = addCalendar(from, 0, 0, r.EveryN)
		case rule.UnitWeek:
			next = addCalendar(from, 0, 0, 7*r.EveryN)
		case rule.UnitMonth:
			next = addCalendarClamped(from, 0, r.EveryN, 0)
		case rule.UnitYear:
			next = addCalendarClamped(from, r.EveryN, 0, 0)
		}
	case rule.Weekdays:
		next = nextWeekday(from, r.Weekdays)
	case rule.Monthdays:
		next = nextMonthday(from, r.Monthdays)
	case rule.Nth:
		next = nextNth(from, r.NthN, r.NthWeekday)
	}

	next = time.Date(next.Year(), next.Month(), next.Day(), hour, min, sec, 0, loc)
	return localToUTC(next, loc)
}

// localToUTC applies the DST policy of spec.md §4.10: ambiguous (fall-back)
// local times resolve to the earlier UTC instant. time.Date may pick either
// instant for such a time (east of UTC it picks the later one), so when the
// offset a day earlier was larger and that offset still applies at the same
// wall time, the earlier instant is returned instead.
func localToUTC(t time.Time, loc *time.Location) int64 {
	u := t.Unix()
	_, off := t.Zone()
	_, prevOff := time.Unix(u-86400, 0).In(loc).Zone()
	if prevOff > off {
		earlier := u + int64(off) - int64(prevOff)
		if _, eOff := time.Unix(earlier, 0).In(loc).Zone(); eOff == prevOff {
			return earlier
		}
	}
	return u
}

// addCalendar adds whole days only (used by daily/weekly/every:d|w, which
// never need day-of-month clamping).
func addCalendar(t time.Time, years, months, days int) time.Time {
	return t.AddDate(years, months, days)
}

// addCalendarClamped adds months/years, clamping the day-of-month to the
// target month's length (spec.md §4.8: "Jan 31 -> Feb 28/29").
func addCalendarClamped(t time.Time, years, months, days int) time.Time {
	day := t.Day()
	firstOfTarget := time.Date(t.Year()+years, t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	lastDay := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), 0, t.Location()).AddDate(0, 0, days)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nextWeekday searches forward from the day after t (up to 7 days) for the
// first day whose weekday is in days (sorted).
func nextWeekday(t time.Time, days []int) time.Time {
	for i := 1; i <= 7; i++ {
		cand := t.AddDate(0, 0, i)
		wd := int(cand.Weekday())
		for _, d := range days {
			if wd == d {
				return cand
			}
		}
	}
	return t.AddDate(0, 0, 7) // unreachable for a non-empty day set
}

// nextMonthday searches forward from the day after t, first in the current
// month then subsequent months, for the first day-of-month in days (sorted),
// skipping invalid days for short months.
func nextMonthday(t time.Time, days []int) time.Time {
	cursor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	for monthOffset := 0; monthOffset < 24; monthOffset++ {
		m := cursor.AddDate(0, monthOffset, 0)
		last := daysInMonth(m.Year(), m.Month())
		for _, d := range days {
			if d > last {
				continue
			}
			cand := time.Date(m.Year(), m.Month(), d, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
			if cand.After(t) {
				return cand
			}
		}
	}
	return t.AddDate(0, 1, 0) // unreachable for a valid day set
}

// nextNth finds the Nth occurrence of weekday in t's month; if that instant
// is <= t, advances to the next month (and again if the Nth doesn't exist).
func nextNth(t time.Time, n, weekday int) time.Time {
	m := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	for monthOffset := 0; monthOffset < 24; monthOffset++ {
		cursor := m.AddDate(0, monthOffset, 0)
		if cand, ok := nthWeekdayOfMonth(cursor, n, weekday); ok && cand.After(t) {
			return cand
		}
	}
	return t.AddDate(0, 1, 0) // unreachable in practice
}

// nthWeekdayOfMonth returns the Nth occurrence (1-indexed) of weekday in
// cursor's month, or ok=false if the month doesn't have an Nth occurrence
// (e.g. a 5th Monday).
func nthWeekdayOfMonth(cursor time.Time, n, weekday int) (time.Time, bool) {
	first := time.Date(cursor.Year(), cursor.Month(), 1, cursor.Hour(), cursor.Minute(), cursor.Second(), 0, cursor.Location())
	firstWD := int(first.Weekday())
	offset := (weekday - firstWD + 7) % 7
	day := 1 + offset + (n-1)*7
	last := daysInMonth(first.Year(), first.Month())
	if day > last {
		return time.Time{}, false
	}
	return time.Date(first.Year(), first.Month(), day, cursor.Hour(), cursor.Minute(), cursor.Second(), 0, cursor.Location()), true
}
