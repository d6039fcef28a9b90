package engine

import (
	"context"

	"tock/internal/domain/task"
)

// Enqueue places the task at the back of the queue. A task that is already
// queued is bumped to the last position; everyone else keeps their relative
// order. Terminal tasks are rejected.
func (e *Engine) Enqueue(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is %s and cannot be queued", id, t.Lifecycle)
		}

		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		order := make([]*task.Task, 0, len(queued)+1)
		for _, q := range queued {
			if q.ID != id {
				order = append(order, q)
			}
		}
		order = append(order, t)
		return renumber(tx, order)
	})
}

// SelectAt resolves a queue index to a task id. Index 0 is the front.
// Out-of-range indices clamp to the nearest valid bound instead of erroring;
// only an empty queue fails.
func (e *Engine) SelectAt(ctx context.Context, index int) (int64, error) {
	var id int64
	err := e.store.View(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return task.NewFault(task.FaultEmptyQueue, "the queue is empty")
		}
		id = queued[clampIndex(index, len(queued))].ID
		return nil
	})
	return id, err
}

// clampIndex clamps index into [0, n-1]. Clamping, not erroring, is a
// deliberate usability policy for index-based selection.
func clampIndex(index, n int) int {
	if index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

// PromoteToFront makes the task position 0, preserving the relative order
// of the rest. A task not yet on the queue is inserted at the front.
func (e *Engine) PromoteToFront(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		return placeAtFront(tx, t)
	})
}

// placeAtFront is the shared front-insertion routine: used by promote, by
// StartFor's implicit promotion, and by Recall's default position.
func placeAtFront(tx task.Tx, t *task.Task) error {
	if t.Lifecycle.IsTerminal() {
		return task.NewFault(task.FaultTerminalLifecycle,
			"task %d is %s and cannot be queued", t.ID, t.Lifecycle)
	}
	queued, err := tx.Queued()
	if err != nil {
		return err
	}
	order := make([]*task.Task, 0, len(queued)+1)
	order = append(order, t)
	for _, q := range queued {
		if q.ID != t.ID {
			order = append(order, q)
		}
	}
	return renumber(tx, order)
}

// Rotate moves the front n tasks to the back, preserving their relative
// order. It is a no-op on an empty or single-element queue.
func (e *Engine) Rotate(ctx context.Context, n int) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		if len(queued) < 2 {
			return nil
		}
		if n <= 0 {
			n = 1
		}
		n %= len(queued)
		if n == 0 {
			return nil
		}
		order := make([]*task.Task, 0, len(queued))
		order = append(order, queued[n:]...)
		order = append(order, queued[:n]...)
		return renumber(tx, order)
	})
}

// RemoveAt removes the task at the given queue index, clamping out-of-range
// indices. Fails only when the queue is empty. Removing the task that
// currently holds the timer is rejected by the invariant guard: the timer
// must be stopped first.
func (e *Engine) RemoveAt(ctx context.Context, index int) (int64, error) {
	var id int64
	err := e.mutate(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return task.NewFault(task.FaultEmptyQueue, "the queue is empty")
		}
		id = queued[clampIndex(index, len(queued))].ID
		return removeFromQueue(tx, id)
	})
	return id, err
}

// Remove removes the given task from the queue by id. A task that is not
// queued is left alone; only an empty queue fails.
func (e *Engine) Remove(ctx context.Context, id int64) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return task.NewFault(task.FaultEmptyQueue, "the queue is empty")
		}
		return removeFromQueue(tx, id)
	})
}

// Clear drops every task from the queue. Rejected while the timer runs,
// since the timed task must keep its front position.
func (e *Engine) Clear(ctx context.Context) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		for _, t := range queued {
			if err := tx.SetQueuePosition(t.ID, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
