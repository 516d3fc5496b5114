package clock

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	c := NewFixed(1000, loc)

	if c.Now() != 1000 {
		t.Errorf("Now() = %d, want 1000", c.Now())
	}
	if c.Location() != loc {
		t.Errorf("Location() = %v, want %v", c.Location(), loc)
	}
}

func TestNewFixedDefaultsToUTC(t *testing.T) {
	c := NewFixed(0, nil)
	if c.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", c.Location())
	}
}

func TestNewSystemDefaultsToLocal(t *testing.T) {
	s := NewSystem(nil)
	if s.Location() != time.Local {
		t.Errorf("Location() = %v, want time.Local", s.Location())
	}
}

func TestAtAndNowTime(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	c := NewFixed(3600, loc)

	got := At(c, c.Now())
	if got.Location() != loc {
		t.Errorf("At().Location() = %v, want %v", got.Location(), loc)
	}
	if got.Unix() != 3600 {
		t.Errorf("At().Unix() = %d, want 3600", got.Unix())
	}

	if NowTime(c).Unix() != c.Now() {
		t.Errorf("NowTime(c).Unix() = %d, want %d", NowTime(c).Unix(), c.Now())
	}
}
