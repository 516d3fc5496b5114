package viewopts_test

import (
	"testing"

	"github.com/da11an/tatl/internal/viewopts"
)

func TestParseSortReversal(t *testing.T) {
	opt, err := viewopts.Parse([]string{"sort:-due,priority"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(opt.Sort) != 2 {
		t.Fatalf("expected 2 sort keys, got %d", len(opt.Sort))
	}
	if opt.Sort[0].Column != viewopts.ColDue || !opt.Sort[0].Reversed {
		t.Fatalf("expected first key to be reversed due, got %+v", opt.Sort[0])
	}
	if opt.Sort[1].Column != viewopts.ColPriority || opt.Sort[1].Reversed {
		t.Fatalf("expected second key to be ascending priority, got %+v", opt.Sort[1])
	}
}

func TestParseColumnAliases(t *testing.T) {
	opt, err := viewopts.Parse([]string{"hide:desc,proj,tag,allocation,pri"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []viewopts.Column{viewopts.ColDescription, viewopts.ColProject, viewopts.ColTags, viewopts.ColAlloc, viewopts.ColPriority}
	if len(opt.Hide) != len(want) {
		t.Fatalf("got %d hidden columns, want %d", len(opt.Hide), len(want))
	}
	for i, c := range want {
		if opt.Hide[i] != c {
			t.Fatalf("hide[%d] = %v, want %v", i, opt.Hide[i], c)
		}
	}
}

func TestEffectiveSortPutsGroupColumnsFirst(t *testing.T) {
	opt, err := viewopts.Parse([]string{"group:project", "sort:-priority"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	eff := opt.EffectiveSort()
	if len(eff) != 2 {
		t.Fatalf("expected group col + sort col, got %d", len(eff))
	}
	if eff[0].Column != viewopts.ColProject {
		t.Fatalf("expected group column first, got %v", eff[0].Column)
	}
	if eff[1].Column != viewopts.ColPriority || !eff[1].Reversed {
		t.Fatalf("expected reversed priority second, got %+v", eff[1])
	}
}

func TestUnknownColumnErrors(t *testing.T) {
	if _, err := viewopts.Parse([]string{"sort:bogus"}); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestAliasTokenRequiresName(t *testing.T) {
	if _, err := viewopts.Parse([]string{"alias:"}); err == nil {
		t.Fatalf("expected error for empty alias name")
	}
	opt, err := viewopts.Parse([]string{"alias:myview"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if opt.Alias != "myview" {
		t.Fatalf("got alias %q, want myview", opt.Alias)
	}
}

func TestVisibleRespectsHideList(t *testing.T) {
	opt, _ := viewopts.Parse([]string{"hide:status"})
	if opt.Visible(viewopts.ColStatus) {
		t.Fatalf("expected status to be hidden")
	}
	if !opt.Visible(viewopts.ColID) {
		t.Fatalf("expected id to remain visible")
	}
}

func TestIsViewTokenDistinguishesFromFilterWords(t *testing.T) {
	if !viewopts.IsViewToken("sort:due") {
		t.Fatalf("expected sort: token recognized")
	}
	if viewopts.IsViewToken("+urgent") {
		t.Fatalf("expected filter token not recognized as view token")
	}
}
