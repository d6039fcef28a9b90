// Package engine implements the queue, timer, handoff and lifecycle
// operations over the fact store. Every operation is one store transaction;
// the invariant guard validates the resulting state before commit, so a
// failure partway leaves prior state untouched.
package engine

import (
	"context"
	"time"

	"tock/internal/classify"
	"tock/internal/domain/task"
	"tock/internal/logging"
)

// DefaultMicroThreshold is the boundary below which a work session counts
// as a micro-session, subject to merge or purge correction.
const DefaultMicroThreshold = 30 * time.Second

// Engine coordinates all mutating operations against the fact store.
type Engine struct {
	store  task.Store
	table  *classify.Table
	micro  time.Duration
	logger logging.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMicroThreshold overrides the micro-session boundary.
func WithMicroThreshold(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.micro = d
		}
	}
}

// WithTable installs a user-supplied classification table.
func WithTable(t *classify.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.OrNop(l)
	}
}

// New builds an Engine over the given store.
func New(store task.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		table:  classify.DefaultTable(),
		micro:  DefaultMicroThreshold,
		logger: logging.NewComponentLogger("Engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// mutate runs fn in one writable transaction and checks the invariant set
// before commit. Engines never commit a state the guard rejects.
func (e *Engine) mutate(ctx context.Context, fn func(tx task.Tx) error) error {
	return e.store.Update(ctx, func(tx task.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return Check(tx)
	})
}

// openSession returns the store-wide open session, or nil when the timer
// is idle. The global singleton is a query, not cached state.
func openSession(tx task.Tx) (*task.Session, error) {
	open, err := tx.OpenSessions()
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	return open[0], nil
}

// removeFromQueue drops the task from the queue and renumbers the rest,
// closing the ordinal gap. No-op when the task is not queued.
func removeFromQueue(tx task.Tx, id int64) error {
	queued, err := tx.Queued()
	if err != nil {
		return err
	}
	found := false
	rest := queued[:0]
	for _, t := range queued {
		if t.ID == id {
			found = true
			continue
		}
		rest = append(rest, t)
	}
	if !found {
		return nil
	}
	if err := tx.SetQueuePosition(id, nil); err != nil {
		return err
	}
	return renumber(tx, rest)
}

// renumber assigns dense ordinals 0..n-1 following the slice order.
func renumber(tx task.Tx, ordered []*task.Task) error {
	for i, t := range ordered {
		if t.QueuePosition != nil && *t.QueuePosition == i {
			continue
		}
		pos := i
		if err := tx.SetQueuePosition(t.ID, &pos); err != nil {
			return err
		}
		t.QueuePosition = &pos
	}
	return nil
}
