// Package clock provides the single "now" source every ledger component reads
// through, so tests can pin time and production code stays in one timezone.
package clock

import "time"

// Clock returns the current instant and the local zone conversions used by
// the date parser, respawn engine, priority scorer and the "waiting" filter
// predicate. Every one of those depends on "now" (spec.md §9, Clock injection).
type Clock interface {
	// Now returns the current instant as Unix seconds (UTC).
	Now() int64
	// Location returns the local timezone used to interpret dates the user
	// types without an explicit offset (§4.10, §4.11).
	Location() *time.Location
}

// System is the production Clock: wall-clock time in the host's local zone.
type System struct {
	loc *time.Location
}

// NewSystem builds a System clock in loc, or in time.Local if loc is nil
// (main passes the zone named by the "timezone" config setting, if any).
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.Local
	}
	return System{loc: loc}
}

func (s System) Now() int64 { return time.Now().Unix() }

func (s System) Location() *time.Location { return s.loc }

// Fixed is a Clock pinned to a fixed instant, used throughout the test suite
// so session/respawn/priority behavior is deterministic.
type Fixed struct {
	T   int64
	Loc *time.Location
}

// NewFixed returns a Fixed clock at the given Unix second, in loc (UTC if nil).
func NewFixed(t int64, loc *time.Location) Fixed {
	if loc == nil {
		loc = time.UTC
	}
	return Fixed{T: t, Loc: loc}
}

func (f Fixed) Now() int64 { return f.T }

func (f Fixed) Location() *time.Location { return f.Loc }

// At converts seconds-since-epoch to a time.Time in the clock's local zone.
func At(c Clock, ts int64) time.Time {
	return time.Unix(ts, 0).In(c.Location())
}

// NowTime is a convenience for At(c, c.Now()).
func NowTime(c Clock) time.Time {
	return At(c, c.Now())
}
