package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/da11an/tatl/internal/dateparse"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/utils"
)

// knownAddModifyFields are the field= tokens spec.md §6.1 recognizes on
// add/modify, besides uda.<key>= and +tag/-tag.
var knownAddModifyFields = []string{"project", "due", "scheduled", "wait", "allocation", "template", "respawn"}

// parsedFields is the intermediate result of splitting an add/modify argv
// tail into description words, recognized field assignments, UDA
// assignments and tag add/remove tokens (spec.md §6.1).
type parsedFields struct {
	DescWords    []string
	Project      task.Opt[string] // NoChange / Clear / Set(name)
	Due          task.Opt[string]
	Scheduled    task.Opt[string]
	Wait         task.Opt[string]
	Allocation   task.Opt[string]
	Template     task.Opt[string]
	Respawn      task.Opt[string]
	UDAsToSet    map[string]string
	UDAsToRemove []string
	TagsToAdd    []string
	TagsToRemove []string
}

// parseFieldTokens splits args the way original_source's add/modify
// handlers do: free words accumulate into the description, field=value or
// field:value tokens set a known field (field= or field=none clears it),
// uda.<key>=<value> sets a UDA (=none clears it), and +tag/-tag add or
// remove tags. An unrecognized "key=value"-shaped token is an error with a
// Levenshtein-distance suggestion (spec.md §6.1).
func parseFieldTokens(args []string) (parsedFields, error) {
	var out parsedFields
	out.UDAsToSet = map[string]string{}

	for _, tok := range args {
		switch {
		case len(tok) > 1 && tok[0] == '+':
			out.TagsToAdd = append(out.TagsToAdd, tok[1:])
		case len(tok) > 1 && tok[0] == '-':
			out.TagsToRemove = append(out.TagsToRemove, tok[1:])
		case strings.HasPrefix(tok, "uda."):
			key, value, ok := splitFieldToken(tok[len("uda."):])
			if !ok {
				return out, fmt.Errorf("invalid uda token %q: expected uda.<key>=<value>", tok)
			}
			if value == "" || value == "none" {
				out.UDAsToRemove = append(out.UDAsToRemove, key)
			} else {
				out.UDAsToSet[key] = value
			}
		case looksLikeFieldToken(tok):
			key, value, ok := splitFieldToken(tok)
			if !ok {
				out.DescWords = append(out.DescWords, tok)
				continue
			}
			if !contains(knownAddModifyFields, key) {
				return out, unknownFieldError(key)
			}
			opt := fieldOpt(value)
			switch key {
			case "project":
				out.Project = opt
			case "due":
				out.Due = opt
			case "scheduled":
				out.Scheduled = opt
			case "wait":
				out.Wait = opt
			case "allocation":
				out.Allocation = opt
			case "template":
				out.Template = opt
			case "respawn":
				out.Respawn = opt
			}
		default:
			out.DescWords = append(out.DescWords, tok)
		}
	}
	return out, nil
}

// looksLikeFieldToken reports whether tok has the shape key=value or
// key:value with a non-empty, charset-plausible key — used to decide
// whether an unrecognized key is an error versus ordinary description text.
func looksLikeFieldToken(tok string) bool {
	key, _, ok := splitFieldToken(tok)
	if !ok || key == "" {
		return false
	}
	for _, r := range key {
		if !(r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func splitFieldToken(tok string) (key, value string, ok bool) {
	if idx := strings.IndexAny(tok, "=:"); idx >= 0 {
		return tok[:idx], tok[idx+1:], true
	}
	return "", "", false
}

// fieldOpt turns a field's textual value into the three-valued Opt: "" or
// "none" clears, anything else sets (spec.md §6.1, §9).
func fieldOpt(value string) task.Opt[string] {
	if value == "" || value == "none" {
		return task.ClearOpt[string]()
	}
	return task.SetOpt(value)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// unknownFieldError reports an unrecognized field with a fuzzy "did you
// mean" suggestion when one of the known fields is within edit distance 3
// (spec.md §6.1, grounded on original_source/src/utils/fuzzy.rs).
func unknownFieldError(key string) error {
	best := ""
	bestDist := 4
	for _, k := range knownAddModifyFields {
		if d := utils.ComputeDistance(key, k); d < bestDist {
			bestDist, best = d, k
		}
	}
	if best != "" {
		return fmt.Errorf("unrecognized field %q; did you mean %q?", key, best)
	}
	return fmt.Errorf("unrecognized field %q; known fields: %s", key, strings.Join(knownAddModifyFields, ", "))
}

// resolveDateField parses a field's textual value through dateparse, unless
// it is NoChange/Clear.
func resolveDateField(opt task.Opt[string], now int64, loc *time.Location) (task.Opt[int64], error) {
	if opt.IsNoChange() {
		return task.NoChange[int64](), nil
	}
	if opt.IsClear() {
		return task.ClearOpt[int64](), nil
	}
	ts, err := dateparse.ParseDate(opt.Value(), now, loc)
	if err != nil {
		return task.Opt[int64]{}, fmt.Errorf("parsing date %q: %w", opt.Value(), err)
	}
	return task.SetOpt(ts), nil
}

// resolveDurationField parses a field's textual value through
// dateparse.ParseDuration, unless it is NoChange/Clear.
func resolveDurationField(opt task.Opt[string]) (task.Opt[int64], error) {
	if opt.IsNoChange() {
		return task.NoChange[int64](), nil
	}
	if opt.IsClear() {
		return task.ClearOpt[int64](), nil
	}
	secs, err := dateparse.ParseDuration(opt.Value())
	if err != nil {
		return task.Opt[int64]{}, fmt.Errorf("parsing duration %q: %w", opt.Value(), err)
	}
	return task.SetOpt(secs), nil
}

