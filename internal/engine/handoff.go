package engine

import (
	"context"
	"time"

	"tock/internal/domain/task"
)

// Send records that the task has been handed to recipient and takes it off
// the queue. When the task is being timed right now, queue membership is
// left alone until Stop, which restores the waiting-means-unqueued rule.
func (e *Engine) Send(ctx context.Context, id int64, recipient, note string, at time.Time) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is %s and cannot be handed off", id, t.Lifecycle)
		}
		existing, err := tx.Waiting(id)
		if err != nil {
			return err
		}
		if existing != nil {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d is already waiting on %s", id, existing.Recipient)
		}

		if err := tx.CreateWaiting(&task.Handoff{
			TaskID:    id,
			Recipient: recipient,
			Note:      note,
			SentAt:    at,
		}); err != nil {
			return err
		}

		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open == nil || open.TaskID != id {
			if err := removeFromQueue(tx, id); err != nil {
				return err
			}
		}
		e.logger.Info("task %d sent to %s", id, recipient)
		return nil
	})
}

// Recall clears the task's waiting record and puts it back on the queue at
// the requested position (0, the front, by default). Fails with
// NoWaitingRecord when the task was never sent.
func (e *Engine) Recall(ctx context.Context, id int64, position int) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		waiting, err := tx.Waiting(id)
		if err != nil {
			return err
		}
		if waiting == nil {
			return task.NewFault(task.FaultNoWaitingRecord,
				"task %d is not waiting on anyone", id)
		}
		if err := tx.DeleteWaiting(id); err != nil {
			return err
		}

		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		rest := make([]*task.Task, 0, len(queued)+1)
		for _, q := range queued {
			if q.ID != id {
				rest = append(rest, q)
			}
		}
		if position < 0 {
			position = 0
		}
		if position > len(rest) {
			position = len(rest)
		}
		order := make([]*task.Task, 0, len(rest)+1)
		order = append(order, rest[:position]...)
		order = append(order, t)
		order = append(order, rest[position:]...)
		if err := renumber(tx, order); err != nil {
			return err
		}
		e.logger.Info("task %d recalled from %s to position %d", id, waiting.Recipient, position)
		return nil
	})
}
