package engine

import (
	"context"
	"fmt"
	"time"

	"tock/internal/domain/task"
)

// TimerResult reports the outcome of a timer transition. Warnings are
// informational and never accompany an error; the CLI surfaces them to the
// user without failing the command.
type TimerResult struct {
	Session  *task.Session
	Warnings []string
}

// StartDefault opens a session for the task at the queue front at the given
// timestamp. Fails with EmptyQueue when nothing is queued and with
// AlreadyRunning when the timer is busy.
func (e *Engine) StartDefault(ctx context.Context, at time.Time) (*TimerResult, error) {
	res := &TimerResult{}
	err := e.mutate(ctx, func(tx task.Tx) error {
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open != nil {
			return task.NewFault(task.FaultAlreadyRunning,
				"already timing task %d", open.TaskID)
		}
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return task.NewFault(task.FaultEmptyQueue,
				"the queue is empty; nothing to start")
		}
		return e.beginSession(tx, queued[0], at, nil, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// StartFor opens a session for the given task. When the timer is running
// for another task, that session is first closed at the same timestamp the
// new one opens, so switching leaves no gap in the record. A waiting
// (handed-off) task is temporarily queued at the front for the duration of
// the session.
func (e *Engine) StartFor(ctx context.Context, id int64, at time.Time) (*TimerResult, error) {
	res := &TimerResult{}
	err := e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is %s and cannot be timed", id, t.Lifecycle)
		}

		open, err := openSession(tx)
		if err != nil {
			return err
		}
		var justClosed *task.Session
		if open != nil {
			if open.TaskID == id {
				return task.NewFault(task.FaultAlreadyRunning,
					"already timing task %d", id)
			}
			justClosed, err = e.closeAt(tx, open, at)
			if err != nil {
				return err
			}
		}
		return e.beginSession(tx, t, at, justClosed, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Stop closes the open session at the given timestamp. If the task carries
// a waiting handoff record, it leaves the queue in the same transaction,
// restoring the waiting-means-unqueued rule its temporary front placement
// suspended.
func (e *Engine) Stop(ctx context.Context, at time.Time) (*TimerResult, error) {
	res := &TimerResult{}
	err := e.mutate(ctx, func(tx task.Tx) error {
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open == nil {
			return task.NewFault(task.FaultNotRunning, "the timer is not running")
		}
		closed, err := e.closeAt(tx, open, at)
		if err != nil {
			return err
		}
		res.Session = closed

		waiting, err := tx.Waiting(closed.TaskID)
		if err != nil {
			return err
		}
		if waiting != nil {
			if err := removeFromQueue(tx, closed.TaskID); err != nil {
				return err
			}
		}

		if d := closed.Duration(); d < e.micro {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"recorded a %s session for task %d; it may be merged or dropped if the next start comes within %s",
				d.Round(time.Second), closed.TaskID, e.micro))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// closeAt sets the session's end timestamp, rejecting zero or negative
// durations.
func (e *Engine) closeAt(tx task.Tx, s *task.Session, at time.Time) (*task.Session, error) {
	if !at.After(s.Start) {
		return nil, task.NewFault(task.FaultNonChronological,
			"session end %s is not after start %s", at.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	end := at
	s.End = &end
	if err := tx.UpdateSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

// withinWindow reports whether next falls in [end, end+window].
func withinWindow(end, next time.Time, window time.Duration) bool {
	gap := next.Sub(end)
	return gap >= 0 && gap <= window
}

// beginSession opens a session for t at the given timestamp, applying the
// micro-session merge/purge policy first. Resolution keys off the most
// recently closed session in the store, which inside a switch is the one
// the implicit stop just closed, so the retroactive adjustment is part of
// this event's own transaction.
func (e *Engine) beginSession(tx task.Tx, t *task.Task, at time.Time, justClosed *task.Session, res *TimerResult) error {
	start := at

	// Purge pass: a short session for another task, closed within the micro
	// window of this start, was boundary noise.
	last, err := tx.LatestClosedSession()
	if err != nil {
		return err
	}
	resolved := false
	if last != nil && last.End != nil && last.TaskID != t.ID &&
		withinWindow(*last.End, at, e.micro) && last.Duration() < e.micro {
		if err := dropSessionRow(tx, last.ID); err != nil {
			return err
		}
		resolved = true
		e.logger.Debug("purged %s micro-session %d for task %d",
			last.Duration(), last.ID, last.TaskID)
		// A purge may expose an earlier session of the started task right
		// behind the noise; re-read so the merge pass can see it.
		if last, err = tx.LatestClosedSession(); err != nil {
			return err
		}
	}

	// Merge pass: the previous session belongs to this task and ended
	// within the window, so the new session takes over its start. Its
	// annotations follow it onto the merged session below.
	var mergedFrom int64
	if last != nil && last.End != nil && last.TaskID == t.ID &&
		withinWindow(*last.End, at, e.micro) {
		start = last.Start
		if err := tx.DeleteSession(last.ID); err != nil {
			return err
		}
		mergedFrom = last.ID
		resolved = true
		e.logger.Debug("merged session %d into new session for task %d", last.ID, t.ID)
	}

	if justClosed != nil && !resolved {
		if d := justClosed.Duration(); d < e.micro {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"kept a %s session for task %d", d.Round(time.Second), justClosed.TaskID))
		}
	}

	if err := placeAtFront(tx, t); err != nil {
		return err
	}

	s := &task.Session{TaskID: t.ID, Start: start}
	if _, err := tx.CreateSession(s); err != nil {
		return err
	}
	if mergedFrom != 0 {
		if err := tx.ReassignAnnotations(mergedFrom, s.ID); err != nil {
			return err
		}
	}
	res.Session = s
	return nil
}

// Interval records a closed session directly, without passing through the
// running state; used for backfilling. Overlap with existing sessions is
// resolved by shortening the existing session's boundary nearest the
// overlap, never by rejecting the new interval.
func (e *Engine) Interval(ctx context.Context, id int64, start, end time.Time) (*TimerResult, error) {
	if !end.After(start) {
		return nil, task.NewFault(task.FaultNonChronological,
			"interval end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	res := &TimerResult{}
	err := e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is %s and cannot receive sessions", id, t.Lifecycle)
		}

		overlapping, err := tx.SessionsOverlapping(start, end)
		if err != nil {
			return err
		}
		for _, o := range overlapping {
			if err := truncateAgainst(tx, o, start, end); err != nil {
				return err
			}
		}

		// The open session resumes at the interval's end. When it started
		// before the interval, the prefix is real recorded work: it is kept
		// as a closed session, the tail-cut counterpart for the open slot.
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open != nil && open.Start.Before(end) {
			if open.Start.Before(start) {
				prefixEnd := start
				prefix := &task.Session{TaskID: open.TaskID, Start: open.Start, End: &prefixEnd}
				if _, err := tx.CreateSession(prefix); err != nil {
					return err
				}
			}
			open.Start = end
			if err := tx.UpdateSession(open); err != nil {
				return err
			}
		}

		s := &task.Session{TaskID: id, Start: start, End: &end}
		if _, err := tx.CreateSession(s); err != nil {
			return err
		}
		res.Session = s

		if d := end.Sub(start); d < e.micro {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"recorded a %s session for task %d", d.Round(time.Second), id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// truncateAgainst shortens the existing closed session o so it no longer
// intersects [start, end), deleting it when nothing chronological remains.
func truncateAgainst(tx task.Tx, o *task.Session, start, end time.Time) error {
	switch {
	case o.Start.Before(start):
		// Existing session runs into the interval: cut its tail.
		s := start
		o.End = &s
	case o.End != nil && o.End.After(end):
		// Existing session runs out of the interval: cut its head.
		o.Start = end
	default:
		// Entirely inside the interval.
		return dropSessionRow(tx, o.ID)
	}
	if o.End == nil || !o.End.After(o.Start) {
		return dropSessionRow(tx, o.ID)
	}
	return tx.UpdateSession(o)
}

// dropSessionRow deletes a session and detaches any annotations still
// pointing at it.
func dropSessionRow(tx task.Tx, id int64) error {
	if err := tx.DeleteSession(id); err != nil {
		return err
	}
	return tx.DetachAnnotations(id)
}
