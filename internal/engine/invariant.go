package engine

import (
	"tock/internal/domain/task"
)

// Check validates the full invariant set against the transaction's current
// state. It runs inside every mutating transaction, after the operation's
// own writes; any violation aborts the transaction with nothing committed.
//
// The invariants:
//  1. at most one open work session exists store-wide
//  2. the task with the open session sits at queue position 0
//  3. a waiting (handed-off) task whose timer is off is not queued
//  4. a waiting task may be queued while its timer is on (front placement)
//  5. terminal tasks are neither queued nor waiting
//
// plus queue density: positions form a contiguous 0..n-1 sequence.
func Check(tx task.Tx) error {
	open, err := tx.OpenSessions()
	if err != nil {
		return err
	}
	if len(open) > 1 {
		return task.NewFault(task.FaultInvariantViolation,
			"%d sessions open at once; at most one may be", len(open))
	}
	var runningTask int64
	if len(open) == 1 {
		runningTask = open[0].TaskID
	}

	queued, err := tx.Queued()
	if err != nil {
		return err
	}
	for i, t := range queued {
		if t.QueuePosition == nil || *t.QueuePosition != i {
			return task.NewFault(task.FaultInvariantViolation,
				"queue positions not dense: task %d at slot %d", t.ID, i)
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d is %s but still queued", t.ID, t.Lifecycle)
		}
	}

	if runningTask != 0 {
		if len(queued) == 0 || queued[0].ID != runningTask {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d has the timer on but is not at the queue front", runningTask)
		}
		t, err := tx.Task(runningTask)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d is %s but has an open session", t.ID, t.Lifecycle)
		}
	}

	waiting, err := tx.WaitingAll()
	if err != nil {
		return err
	}
	for _, h := range waiting {
		t, err := tx.Task(h.TaskID)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d is %s but still waiting on %s", t.ID, t.Lifecycle, h.Recipient)
		}
		if t.Queued() && t.ID != runningTask {
			return task.NewFault(task.FaultInvariantViolation,
				"task %d is waiting on %s with the timer off but still queued", t.ID, h.Recipient)
		}
	}

	return nil
}
