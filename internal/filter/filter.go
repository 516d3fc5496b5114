// Package filter implements the task filter language of spec.md §4.9: a
// small tokeniser plus a precedence-climbing parser (not > and > or) that
// produces an Expr tree evaluated per task row.
package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/dateparse"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/stage"
	"github.com/da11an/tatl/internal/store"
	"github.com/da11an/tatl/internal/validation"
)

// Expr is a node in the parsed filter tree.
type Expr interface {
	Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error)
}

// Evaluator supplies the per-query context a predicate needs to evaluate
// against a task row: DB access for tag/external/stack sub-queries, the
// clock, and the default stack id used by the kanban predicate's in_queue
// component.
type Evaluator struct {
	Q       store.Queryer
	Clock   clock.Clock
	StackID int64
}

func NewEvaluator(q store.Queryer, c clock.Clock, stackID int64) *Evaluator {
	return &Evaluator{Q: q, Clock: c, StackID: stackID}
}

// Matches evaluates expr against t; a nil expr (empty token list) matches
// everything (spec.md §4.9).
func (ev *Evaluator) Matches(ctx context.Context, expr Expr, t types.Task) (bool, error) {
	if expr == nil {
		return true, nil
	}
	return expr.Eval(ctx, ev, t)
}

// Parse tokenises and parses a filter expression from already argv-split
// words (spec.md §4.9: "each argv word is one token").
func Parse(words []string) (Expr, error) {
	if len(words) == 0 {
		return nil, nil
	}
	p := &parser{words: words}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.words) {
		return nil, fmt.Errorf("filter: unexpected token %q", p.words[p.pos])
	}
	return expr, nil
}

type parser struct {
	words []string
	pos   int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.words) {
		return "", false
	}
	return p.words[p.pos], true
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok != "or" {
			break
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for {
		tok, ok := p.peek()
		if !ok || tok == "or" {
			break
		}
		next, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return andExpr{terms}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("filter: unexpected end of expression")
	}
	if tok == "not" {
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner}, nil
	}
	return p.parseTerm()
}

func (p *parser) parseTerm() (Expr, error) {
	tok, _ := p.peek()
	p.pos++

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return idPred{op: "=", value: n}, nil
	}
	if tok == "waiting" {
		return waitingPred{}, nil
	}
	if len(tok) > 1 && (tok[0] == '+' || tok[0] == '-') {
		tag := tok[1:]
		if err := validation.Tag(tag); err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		return tagPred{tag: tag, negate: tok[0] == '-'}, nil
	}

	key, op, value, err := splitKeyOp(tok)
	if err != nil {
		return nil, err
	}
	return newKeyPred(key, op, value)
}

var ops = []string{"!=", "<>", ">=", "<=", "=", "<", ">"}

func splitKeyOp(tok string) (key, op, value string, err error) {
	bestIdx := -1
	bestOp := ""
	for _, o := range ops {
		if idx := strings.Index(tok, o); idx >= 0 {
			if bestIdx == -1 || idx < bestIdx || (idx == bestIdx && len(o) > len(bestOp)) {
				bestIdx = idx
				bestOp = o
			}
		}
	}
	if bestIdx == -1 {
		return "", "", "", fmt.Errorf("filter: %q is not a recognized token", tok)
	}
	return tok[:bestIdx], bestOp, tok[bestIdx+len(bestOp):], nil
}

var knownKeys = map[string]bool{
	"id": true, "status": true, "project": true, "due": true, "scheduled": true,
	"wait": true, "kanban": true, "desc": true, "description": true, "external": true,
}

func newKeyPred(key, op, value string) (Expr, error) {
	if !knownKeys[key] {
		keys := make([]string, 0, len(knownKeys))
		for k := range knownKeys {
			keys = append(keys, k)
		}
		return nil, fmt.Errorf("filter: unknown key %q; known keys: %s", key, strings.Join(keys, ", "))
	}
	switch key {
	case "id":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filter: id value %q must be an integer", value)
		}
		return idPred{op: op, value: n}, nil
	case "status":
		if op != "=" && op != "!=" {
			return nil, fmt.Errorf("filter: status only supports = and !=")
		}
		return statusPred{values: strings.Split(value, ","), negate: op == "!="}, nil
	case "project":
		if op != "=" {
			return nil, fmt.Errorf("filter: project only supports = (use not project=X to negate)")
		}
		return projectPred{values: strings.Split(value, ",")}, nil
	case "due", "scheduled", "wait":
		return dateFieldPred{field: key, op: op, raw: value}, nil
	case "kanban":
		if op != "=" {
			return nil, fmt.Errorf("filter: kanban only supports =")
		}
		return kanbanPred{stages: strings.Split(value, ",")}, nil
	case "desc", "description":
		if op != "=" {
			return nil, fmt.Errorf("filter: desc only supports =")
		}
		return descPred{substr: value}, nil
	case "external":
		if op != "=" {
			return nil, fmt.Errorf("filter: external only supports =")
		}
		return externalPred{recipient: value}, nil
	}
	panic("unreachable")
}

// --- boolean combinators ---

type andExpr struct{ terms []Expr }

func (e andExpr) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	for _, term := range e.terms {
		ok, err := term.Eval(ctx, ev, t)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

type orExpr struct{ left, right Expr }

func (e orExpr) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	ok, err := e.left.Eval(ctx, ev, t)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	return e.right.Eval(ctx, ev, t)
}

type notExpr struct{ inner Expr }

func (e notExpr) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	ok, err := e.inner.Eval(ctx, ev, t)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// --- leaf predicates ---

type idPred struct {
	op    string
	value int64
}

func (p idPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	return compareInt64(t.ID, p.op, p.value), nil
}

type waitingPred struct{}

func (p waitingPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	return t.WaitTS != nil && *t.WaitTS > ev.Clock.Now(), nil
}

type tagPred struct {
	tag    string
	negate bool
}

func (p tagPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	var count int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_tags WHERE task_id = ? AND tag = ?`, t.ID, p.tag).Scan(&count); err != nil {
		return false, fmt.Errorf("filter: tag lookup: %w", err)
	}
	has := count > 0
	if p.negate {
		return !has, nil
	}
	return has, nil
}

type statusPred struct {
	values []string
	negate bool
}

func (p statusPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	match := false
	for _, v := range p.values {
		if strings.TrimSpace(v) == string(t.Status) {
			match = true
			break
		}
	}
	if p.negate {
		return !match, nil
	}
	return match, nil
}

type projectPred struct{ values []string }

func (p projectPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	for _, v := range p.values {
		v = strings.TrimSpace(v)
		if (v == "" || v == "none") && t.ProjectID == nil {
			return true, nil
		}
		if t.ProjectID == nil {
			continue
		}
		var name string
		if err := ev.Q.QueryRowContext(ctx, `SELECT name FROM projects WHERE id = ?`, *t.ProjectID).Scan(&name); err != nil {
			return false, fmt.Errorf("filter: project lookup: %w", err)
		}
		if validation.IsDottedPrefix(v, name) {
			return true, nil
		}
	}
	return false, nil
}

type dateFieldPred struct {
	field string
	op    string
	raw   string
}

func (p dateFieldPred) fieldValue(t types.Task) *int64 {
	switch p.field {
	case "due":
		return t.DueTS
	case "scheduled":
		return t.ScheduledTS
	case "wait":
		return t.WaitTS
	}
	return nil
}

func (p dateFieldPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	fv := p.fieldValue(t)
	lower := strings.ToLower(strings.TrimSpace(p.raw))
	if lower == "any" {
		present := fv != nil
		return boolForOp(p.op, present)
	}
	if lower == "none" {
		absent := fv == nil
		return boolForOp(p.op, absent)
	}
	if fv == nil {
		return false, nil
	}
	target, err := dateparse.ParseDate(p.raw, ev.Clock.Now(), ev.Clock.Location())
	if err != nil {
		return false, fmt.Errorf("filter: %s: %w", p.field, err)
	}
	if p.op == "=" || p.op == "!=" || p.op == "<>" {
		loc := ev.Clock.Location()
		sameDay := dayOf(*fv, loc) == dayOf(target, loc)
		if p.op == "=" {
			return sameDay, nil
		}
		return !sameDay, nil
	}
	return compareInt64(*fv, p.op, target), nil
}

func dayOf(ts int64, loc *time.Location) (int, int, int) {
	t := time.Unix(ts, 0).In(loc)
	return t.Year(), int(t.Month()), t.Day()
}

type kanbanPred struct{ stages []string }

func (p kanbanPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	s, err := computeStage(ctx, ev, t)
	if err != nil {
		return false, err
	}
	for _, v := range p.stages {
		if strings.TrimSpace(v) == string(s) {
			return true, nil
		}
	}
	return false, nil
}

func computeStage(ctx context.Context, ev *Evaluator, t types.Task) (types.Stage, error) {
	var inQueue int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stack_items WHERE stack_id = ? AND task_id = ?`, ev.StackID, t.ID).Scan(&inQueue); err != nil {
		return "", fmt.Errorf("filter: kanban in_queue: %w", err)
	}
	var hasSessions int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE task_id = ?`, t.ID).Scan(&hasSessions); err != nil {
		return "", fmt.Errorf("filter: kanban has_sessions: %w", err)
	}
	var hasOpenSession int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE task_id = ? AND end_ts IS NULL`, t.ID).Scan(&hasOpenSession); err != nil {
		return "", fmt.Errorf("filter: kanban has_open_session: %w", err)
	}
	var hasExternals int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_externals WHERE task_id = ? AND returned_ts IS NULL`, t.ID).Scan(&hasExternals); err != nil {
		return "", fmt.Errorf("filter: kanban has_externals: %w", err)
	}
	return stage.Classify(stage.Inputs{
		Status:         t.Status,
		InQueue:        inQueue > 0,
		HasSessions:    hasSessions > 0,
		HasOpenSession: hasOpenSession > 0,
		HasExternals:   hasExternals > 0,
	}), nil
}

type descPred struct{ substr string }

func (p descPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	return strings.Contains(strings.ToLower(t.Description), strings.ToLower(p.substr)), nil
}

type externalPred struct{ recipient string }

func (p externalPred) Eval(ctx context.Context, ev *Evaluator, t types.Task) (bool, error) {
	var count int
	if err := ev.Q.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_externals WHERE task_id = ? AND returned_ts IS NULL AND recipient = ?`, t.ID, p.recipient).Scan(&count); err != nil {
		return false, fmt.Errorf("filter: external lookup: %w", err)
	}
	return count > 0, nil
}

func boolForOp(op string, v bool) (bool, error) {
	switch op {
	case "=":
		return v, nil
	case "!=", "<>":
		return !v, nil
	default:
		return false, fmt.Errorf("filter: any/none only support = and !=")
	}
}

func compareInt64(a int64, op string, b int64) bool {
	switch op {
	case "=":
		return a == b
	case "!=", "<>":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}
