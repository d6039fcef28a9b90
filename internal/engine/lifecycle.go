package engine

import (
	"context"
	"time"

	"tock/internal/domain/task"
)

// Complete closes the task. If the task currently holds the timer, the open
// session is stopped at the same timestamp inside the same transaction; the
// task then leaves the queue and loses any waiting record, all atomically.
func (e *Engine) Complete(ctx context.Context, id int64, at time.Time) (*TimerResult, error) {
	return e.finish(ctx, id, task.LifecycleClosed, at)
}

// Cancel cancels the task with the same atomic cleanup as Complete.
func (e *Engine) Cancel(ctx context.Context, id int64, at time.Time) (*TimerResult, error) {
	return e.finish(ctx, id, task.LifecycleCancelled, at)
}

func (e *Engine) finish(ctx context.Context, id int64, to task.Lifecycle, at time.Time) (*TimerResult, error) {
	res := &TimerResult{}
	err := e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is already %s", id, t.Lifecycle)
		}

		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open != nil && open.TaskID == id {
			closed, err := e.closeAt(tx, open, at)
			if err != nil {
				return err
			}
			res.Session = closed
		}

		if err := removeFromQueue(tx, id); err != nil {
			return err
		}
		if err := tx.DeleteWaiting(id); err != nil {
			return err
		}

		t.Lifecycle = to
		if err := tx.UpdateTask(t); err != nil {
			return err
		}
		e.logger.Info("task %d marked %s", id, to)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
