package main

import (
	"testing"

	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/viewopts"
)

func TestStringCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := stringCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("stringCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestInt64CompareNilsSortLast(t *testing.T) {
	one := int64(1)
	two := int64(2)

	if got := int64Compare(nil, nil); got != 0 {
		t.Errorf("int64Compare(nil, nil) = %d, want 0", got)
	}
	if got := int64Compare(nil, &one); got <= 0 {
		t.Errorf("int64Compare(nil, &1) = %d, want > 0 (nil sorts last)", got)
	}
	if got := int64Compare(&one, nil); got >= 0 {
		t.Errorf("int64Compare(&1, nil) = %d, want < 0 (nil sorts last)", got)
	}
	if got := int64Compare(&one, &two); got >= 0 {
		t.Errorf("int64Compare(&1, &2) = %d, want < 0", got)
	}
}

func TestSortRowsByDescriptionAscending(t *testing.T) {
	rows := []taskRow{
		{Task: types.Task{ID: 1, Description: "zebra"}},
		{Task: types.Task{ID: 2, Description: "apple"}},
		{Task: types.Task{ID: 3, Description: "mango"}},
	}
	sortRows(rows, []viewopts.SortKey{{Column: viewopts.ColDescription}})

	want := []string{"apple", "mango", "zebra"}
	for i, w := range want {
		if rows[i].Task.Description != w {
			t.Fatalf("rows[%d].Description = %q, want %q", i, rows[i].Task.Description, w)
		}
	}
}

func TestSortRowsReversed(t *testing.T) {
	rows := []taskRow{
		{Task: types.Task{ID: 1, Description: "a"}},
		{Task: types.Task{ID: 2, Description: "c"}},
		{Task: types.Task{ID: 3, Description: "b"}},
	}
	sortRows(rows, []viewopts.SortKey{{Column: viewopts.ColDescription, Reversed: true}})

	want := []string{"c", "b", "a"}
	for i, w := range want {
		if rows[i].Task.Description != w {
			t.Fatalf("rows[%d].Description = %q, want %q", i, rows[i].Task.Description, w)
		}
	}
}

func TestSortRowsNoKeysLeavesOrderUnchanged(t *testing.T) {
	rows := []taskRow{
		{Task: types.Task{ID: 2}},
		{Task: types.Task{ID: 1}},
	}
	sortRows(rows, nil)
	if rows[0].Task.ID != 2 || rows[1].Task.ID != 1 {
		t.Fatalf("order changed with no sort keys: %+v", rows)
	}
}

func TestInsertionSortStable(t *testing.T) {
	rows := []taskRow{
		{Task: types.Task{ID: 1, Description: "same"}},
		{Task: types.Task{ID: 2, Description: "same"}},
		{Task: types.Task{ID: 3, Description: "same"}},
	}
	insertionSort(rows, func(i, j int) bool {
		return stringCompare(rows[i].Task.Description, rows[j].Task.Description) < 0
	})
	if rows[0].Task.ID != 1 || rows[1].Task.ID != 2 || rows[2].Task.ID != 3 {
		t.Fatalf("equal-key rows were reordered: %+v", rows)
	}
}
