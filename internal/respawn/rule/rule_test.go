package rule_test

import (
	"testing"

	"github.com/da11an/tatl/internal/respawn/rule"
)

func TestParseSimpleKinds(t *testing.T) {
	for _, s := range []string{"daily", "WEEKLY", " monthly ", "yearly"} {
		if !rule.Valid(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
}

func TestParseEvery(t *testing.T) {
	r, err := rule.Parse("every:3d")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Kind != rule.Every || r.EveryN != 3 || r.EveryUnit != rule.UnitDay {
		t.Fatalf("unexpected rule: %+v", r)
	}
	if rule.Valid("every:0d") {
		t.Error("every:0d should be invalid (N must be positive)")
	}
	if rule.Valid("every:3x") {
		t.Error("every:3x should be invalid (bad unit)")
	}
}

func TestParseWeekdaysDedupSorted(t *testing.T) {
	r, err := rule.Parse("weekdays:fri,mon,mon,Wed")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []int{1, 3, 5} // mon, wed, fri
	if len(r.Weekdays) != len(want) {
		t.Fatalf("got %v want %v", r.Weekdays, want)
	}
	for i, w := range want {
		if r.Weekdays[i] != w {
			t.Fatalf("got %v want %v", r.Weekdays, want)
		}
	}
}

func TestParseMonthdaysValidatesRange(t *testing.T) {
	if rule.Valid("monthdays:32") {
		t.Error("monthdays:32 should be invalid")
	}
	if rule.Valid("monthdays:0") {
		t.Error("monthdays:0 should be invalid")
	}
	r, err := rule.Parse("monthdays:15,1,1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Monthdays) != 2 || r.Monthdays[0] != 1 || r.Monthdays[1] != 15 {
		t.Fatalf("unexpected monthdays: %v", r.Monthdays)
	}
}

func TestParseNth(t *testing.T) {
	r, err := rule.Parse("nth:2:tue")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.NthN != 2 || r.NthWeekday != 2 {
		t.Fatalf("unexpected rule: %+v", r)
	}
	if rule.Valid("nth:6:tue") {
		t.Error("nth:6 should be invalid (1..5 only)")
	}
	if rule.Valid("nth:2:tuesday-ish") {
		t.Error("nth with garbage weekday should be invalid")
	}
}

func TestInvalidGrammar(t *testing.T) {
	for _, s := range []string{"", "sometimes", "every:", "weekdays:", "monthdays:", "nth:1"} {
		if rule.Valid(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
