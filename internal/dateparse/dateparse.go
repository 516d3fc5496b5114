// Package dateparse implements the date and duration grammars of spec.md
// §4.10 (view options are parsed by internal/viewopts). Absolute dates,
// signed/unsigned offsets (including "in N unit"), named anchors, "next
// week" and the time-only resolution window are hand-parsed because their
// exact semantics (clamping, tie-breaks, DST policy) are spec-defined; any
// other free-form phrase is handed to olebedev/when, the same
// natural-language layer the examples use for this class of input.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
)

var whenParser *when.Parser

func init() {
	w := when.New(nil)
	w.Add(en.All...)
	whenParser = w
}

// ErrNonExistentLocalTime is returned when a local timestamp falls in a
// spring-forward gap (spec.md §4.10 DST policy).
var ErrNonExistentLocalTime = fmt.Errorf("dateparse: local time does not exist (spring-forward gap)")

var isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}):(\d{2})(?::(\d{2}))?)?$`)
var signedOffsetRe = regexp.MustCompile(`^([+-]?)(\d+)\s*([dwmy]|days?|weeks?|months?|years?)$`)
var timeOnlyHHMM = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
var timeOnlyAmPm = regexp.MustCompile(`^(\d{1,2})(am|pm)$`)

// ParseDate parses a date expression relative to now, in loc, per spec.md
// §4.10. now and the result are Unix seconds (UTC).
func ParseDate(s string, now int64, loc *time.Location) (int64, error) {
	raw := strings.TrimSpace(s)
	lower := strings.ToLower(raw)
	nowT := time.Unix(now, 0).In(loc)

	if m := isoDateRe.FindStringSubmatch(raw); m != nil {
		return parseISO(m, loc)
	}

	switch lower {
	case "today":
		return localToUTC(localMidnight(nowT), loc)
	case "tomorrow":
		return localToUTC(localMidnight(nowT.AddDate(0, 0, 1)), loc)
	case "eod":
		return localToUTC(localEndOfDay(nowT), loc)
	case "eow":
		return localToUTC(localEndOfWeek(nowT), loc)
	case "eom":
		return localToUTC(localEndOfMonth(nowT), loc)
	case "next week":
		return localToUTC(localMidnight(nowT.AddDate(0, 0, 7)), loc)
	case "noon":
		return resolveTimeOnly(nowT, 12, 0, loc)
	case "midnight":
		return resolveTimeOnly(nowT, 0, 0, loc)
	}

	if m := signedOffsetRe.FindStringSubmatch(lower); m != nil {
		return parseOffset(m, nowT, loc)
	}
	if strings.HasPrefix(lower, "in ") {
		rest := strings.TrimSpace(lower[3:])
		if m := signedOffsetRe.FindStringSubmatch(rest); m != nil {
			return parseOffset(m, nowT, loc)
		}
	}

	if m := timeOnlyHHMM.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return resolveTimeOnly(nowT, h, min, loc)
	}
	if m := timeOnlyAmPm.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		if m[2] == "pm" && h != 12 {
			h += 12
		}
		if m[2] == "am" && h == 12 {
			h = 0
		}
		return resolveTimeOnly(nowT, h, 0, loc)
	}

	r, err := whenParser.Parse(raw, nowT)
	if err != nil {
		return 0, fmt.Errorf("dateparse: %w", err)
	}
	if r == nil {
		return 0, fmt.Errorf("dateparse: unrecognized date expression %q", s)
	}
	return r.Time.In(loc).Unix(), nil
}

func parseISO(m []string, loc *time.Location) (int64, error) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, min, sec := 0, 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		min, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, loc)
	if err := checkDSTGap(t, loc); err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func parseOffset(m []string, now time.Time, loc *time.Location) (int64, error) {
	sign := 1
	if m[1] == "-" {
		sign = -1
	}
	n, _ := strconv.Atoi(m[2])
	n *= sign
	unit := m[3]

	var days int
	switch {
	case strings.HasPrefix(unit, "d"):
		days = n
	case strings.HasPrefix(unit, "w"):
		days = n * 7
	case strings.HasPrefix(unit, "m"):
		days = n * 30 // m ≈ 30d, spec.md §4.10
	case strings.HasPrefix(unit, "y"):
		days = n * 365 // y ≈ 365d
	default:
		return 0, fmt.Errorf("dateparse: unknown unit %q", unit)
	}
	target := now.AddDate(0, 0, days)
	if err := checkDSTGap(target, loc); err != nil {
		return 0, err
	}
	return target.Unix(), nil
}

func localMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func localEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// localEndOfWeek is Sunday 23:59:59 local (spec.md §4.10).
func localEndOfWeek(t time.Time) time.Time {
	daysUntilSunday := (7 - int(t.Weekday())) % 7
	sunday := t.AddDate(0, 0, daysUntilSunday)
	return localEndOfDay(sunday)
}

func localEndOfMonth(t time.Time) time.Time {
	firstNextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstNextMonth.AddDate(0, 0, -1)
	return localEndOfDay(lastDay)
}

// resolveTimeOnly resolves a bare clock time to the nearest occurrence
// within [-8h, +16h] of now (spec.md §4.10): if both a past and a future
// candidate fall in the window, prefer the future unless the past candidate
// is closer than half the distance to the future candidate; otherwise pick
// whichever candidate is nearer.
func resolveTimeOnly(now time.Time, hour, min int, loc *time.Location) (int64, error) {
	todayCandidate := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, loc)

	var past, future time.Time
	if todayCandidate.After(now) {
		future = todayCandidate
		past = todayCandidate.AddDate(0, 0, -1)
	} else if todayCandidate.Before(now) {
		past = todayCandidate
		future = todayCandidate.AddDate(0, 0, 1)
	} else {
		return todayCandidate.Unix(), nil
	}

	windowStart := now.Add(-8 * time.Hour)
	windowEnd := now.Add(16 * time.Hour)

	pastInWindow := !past.Before(windowStart) && !past.After(windowEnd)
	futureInWindow := !future.Before(windowStart) && !future.After(windowEnd)

	pastDist := now.Sub(past)
	futureDist := future.Sub(now)

	var chosen time.Time
	switch {
	case pastInWindow && futureInWindow:
		if pastDist < futureDist/2 {
			chosen = past
		} else {
			chosen = future
		}
	case pastInWindow:
		chosen = past
	case futureInWindow:
		chosen = future
	default:
		if pastDist <= futureDist {
			chosen = past
		} else {
			chosen = future
		}
	}
	if err := checkDSTGap(chosen, loc); err != nil {
		return 0, err
	}
	return chosen.Unix(), nil
}

// checkDSTGap rejects a local time that doesn't exist due to a
// spring-forward transition (spec.md §4.10). Go's time.Date silently
// normalizes such times by shifting forward; we detect that shift and
// treat it as an error. Ambiguous (fall-back) times are accepted as-is:
// Go's time.Date resolves them to one concrete instant, which this policy
// treats as "the earlier UTC instant" by construction of how offsets are
// looked up for the first occurrence.
func checkDSTGap(t time.Time, loc *time.Location) error {
	reconstructed := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
	if reconstructed.Hour() != t.Hour() || reconstructed.Day() != t.Day() {
		return ErrNonExistentLocalTime
	}
	return nil
}

func localToUTC(t time.Time, loc *time.Location) (int64, error) {
	if err := checkDSTGap(t, loc); err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// durationRe validates the canonical (Nd)?(Nh)?(Nm)?(Ns)? ordering, each
// unit appearing at most once (spec.md §4.10).
var durationRe = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration parses a duration string into seconds.
func ParseDuration(s string) (int64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("dateparse: empty duration")
	}
	m := durationRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("dateparse: invalid duration %q: expected (Nd)?(Nh)?(Nm)?(Ns)?", s)
	}
	var total int64
	units := []int64{86400, 3600, 60, 1}
	any := false
	for i, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("dateparse: invalid duration %q: %w", s, err)
		}
		total += n * units[i]
		any = true
	}
	if !any || total == 0 {
		return 0, fmt.Errorf("dateparse: duration %q must be non-empty and non-zero", s)
	}
	return total, nil
}
