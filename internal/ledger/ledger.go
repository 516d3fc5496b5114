// Package ledger wires the project/task/stack/session/annotation/external
// repositories, the stage classifier, the filter evaluator and the respawn
// engine into a single per-transaction handle, so every CLI command runs
// them all against one store.Queryer inside one store transaction
// (spec.md §5: "every command is wrapped in a single store transaction").
package ledger

import (
	"context"
	"database/sql"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/filter"
	"github.com/da11an/tatl/internal/ledger/annotation"
	"github.com/da11an/tatl/internal/ledger/external"
	"github.com/da11an/tatl/internal/ledger/project"
	"github.com/da11an/tatl/internal/ledger/session"
	"github.com/da11an/tatl/internal/ledger/stack"
	"github.com/da11an/tatl/internal/ledger/task"
	"github.com/da11an/tatl/internal/respawn"
	"github.com/da11an/tatl/internal/store"
)

// Ledger owns the long-lived store handle and clock, and opens one Tx per
// command (spec.md §5).
type Ledger struct {
	store *store.Store
	clock clock.Clock
}

// New returns a Ledger bound to an already-open store and clock.
func New(s *store.Store, c clock.Clock) *Ledger {
	return &Ledger{store: s, clock: c}
}

// Clock returns the ledger's clock, used by CLI code that needs "now"
// outside of a transaction (e.g. to render relative dates).
func (l *Ledger) Clock() clock.Clock { return l.clock }

// Run executes fn inside one store transaction, constructing a fresh Tx
// bound to it. fn's error rolls the transaction back.
func (l *Ledger) Run(ctx context.Context, fn func(tx *Tx) error) error {
	return l.store.WithTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(newTx(sqlTx, l.clock))
	})
}

// Tx bundles every repository and engine against a single transaction-scoped
// store.Queryer. It is never constructed directly by callers; use Ledger.Run.
type Tx struct {
	Q     store.Queryer
	Clock clock.Clock

	Projects    *project.Repo
	Tasks       *task.Repo
	Stacks      *stack.Repo
	Sessions    *session.Repo
	Annotations *annotation.Repo
	Externals   *external.Repo
	Respawn     *respawn.Engine
	Filter      *filter.Evaluator
}

func newTx(q store.Queryer, c clock.Clock) *Tx {
	tasks := task.New(q, c, nil)
	engine := respawn.New(c, tasks)
	tasks.Respawner = engine

	return &Tx{
		Q:           q,
		Clock:       c,
		Projects:    project.New(q, c),
		Tasks:       tasks,
		Stacks:      stack.New(q, c),
		Sessions:    session.New(q, c),
		Annotations: annotation.New(q, c),
		Externals:   external.New(q, c),
		Respawn:     engine,
		Filter:      filter.NewEvaluator(q, c, 0),
	}
}

// DefaultStackID resolves (creating if necessary) the "default" stack and
// binds tx.Filter's kanban predicate to it, since the CLI surface operates
// on exactly one stack (spec.md §3).
func (tx *Tx) DefaultStackID(ctx context.Context) (int64, error) {
	s, err := tx.Stacks.GetOrCreateDefault(ctx)
	if err != nil {
		return 0, err
	}
	tx.Filter = filter.NewEvaluator(tx.Q, tx.Clock, s.ID)
	return s.ID, nil
}
