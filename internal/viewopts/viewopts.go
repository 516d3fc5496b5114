// Package viewopts parses the sort:/group:/hide:/alias: tokens that listing
// commands accept alongside a filter expression (spec.md §4.10).
package viewopts

import (
	"fmt"
	"strings"
)

// Column is a known, canonicalized listing column.
type Column string

const (
	ColID          Column = "id"
	ColDescription Column = "description"
	ColKanban      Column = "kanban"
	ColProject     Column = "project"
	ColTags        Column = "tags"
	ColDue         Column = "due"
	ColAlloc       Column = "alloc"
	ColPriority    Column = "priority"
	ColClock       Column = "clock"
	ColStatus      Column = "status"
)

// aliases maps every accepted spelling to its canonical column (spec.md §4.10).
var aliases = map[string]Column{
	"id":          ColID,
	"description": ColDescription,
	"desc":        ColDescription,
	"kanban":      ColKanban,
	"project":     ColProject,
	"proj":        ColProject,
	"tags":        ColTags,
	"tag":         ColTags,
	"due":         ColDue,
	"alloc":       ColAlloc,
	"allocation":  ColAlloc,
	"priority":    ColPriority,
	"prio":        ColPriority,
	"pri":         ColPriority,
	"clock":       ColClock,
	"status":      ColStatus,
}

// SortKey is one column in a sort: list, optionally reversed.
type SortKey struct {
	Column   Column
	Reversed bool
}

// Options is the parsed form of every sort:/group:/hide:/alias: token found
// among a listing command's arguments.
type Options struct {
	Sort  []SortKey
	Group []Column
	Hide  []Column
	Alias string
}

// IsViewToken reports whether word is a sort:/group:/hide:/alias: token, so
// callers can split view tokens out of a filter expression's word list
// before parsing the rest as a filter (spec.md §4.9/§4.10 share one argv).
func IsViewToken(word string) bool {
	for _, prefix := range []string{"sort:", "group:", "hide:", "alias:"} {
		if strings.HasPrefix(word, prefix) {
			return true
		}
	}
	return false
}

// Parse parses view-option tokens (e.g. "sort:-due,priority", "hide:status")
// out of words, merging repeated sort:/group:/hide: tokens in the order
// encountered. A second alias: token overwrites the first.
func Parse(words []string) (Options, error) {
	var opt Options
	for _, w := range words {
		switch {
		case strings.HasPrefix(w, "sort:"):
			keys, err := parseSortList(strings.TrimPrefix(w, "sort:"))
			if err != nil {
				return Options{}, err
			}
			opt.Sort = append(opt.Sort, keys...)
		case strings.HasPrefix(w, "group:"):
			cols, err := parseColumnList(strings.TrimPrefix(w, "group:"))
			if err != nil {
				return Options{}, err
			}
			opt.Group = append(opt.Group, cols...)
		case strings.HasPrefix(w, "hide:"):
			cols, err := parseColumnList(strings.TrimPrefix(w, "hide:"))
			if err != nil {
				return Options{}, err
			}
			opt.Hide = append(opt.Hide, cols...)
		case strings.HasPrefix(w, "alias:"):
			name := strings.TrimPrefix(w, "alias:")
			if name == "" {
				return Options{}, fmt.Errorf("viewopts: alias: requires a name")
			}
			opt.Alias = name
		default:
			return Options{}, fmt.Errorf("viewopts: %q is not a view option", w)
		}
	}
	return opt, nil
}

func parseSortList(s string) ([]SortKey, error) {
	if s == "" {
		return nil, fmt.Errorf("viewopts: sort: requires at least one column")
	}
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		reversed := false
		if strings.HasPrefix(part, "-") {
			reversed = true
			part = part[1:]
		}
		col, ok := aliases[part]
		if !ok {
			return nil, fmt.Errorf("viewopts: unknown sort column %q", part)
		}
		keys = append(keys, SortKey{Column: col, Reversed: reversed})
	}
	return keys, nil
}

func parseColumnList(s string) ([]Column, error) {
	if s == "" {
		return nil, fmt.Errorf("viewopts: requires at least one column")
	}
	var cols []Column
	for _, part := range strings.Split(s, ",") {
		col, ok := aliases[part]
		if !ok {
			return nil, fmt.Errorf("viewopts: unknown column %q", part)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// EffectiveSort returns the sort key list actually applied to a result set:
// the group columns (each ascending, so grouped rows stay contiguous),
// followed by the user's requested sort, per spec.md §4.10 ("sort by the
// group columns before applying the user's sort").
func (o Options) EffectiveSort() []SortKey {
	keys := make([]SortKey, 0, len(o.Group)+len(o.Sort))
	for _, g := range o.Group {
		keys = append(keys, SortKey{Column: g})
	}
	keys = append(keys, o.Sort...)
	return keys
}

// Visible reports whether col should be rendered given the hide: list.
func (o Options) Visible(col Column) bool {
	for _, h := range o.Hide {
		if h == col {
			return false
		}
	}
	return true
}
