package engine

import (
	"context"
	"strings"
	"time"

	"tock/internal/domain/task"
)

// Add creates a task from its descriptive attributes. Lifecycle and queue
// facts always start clean regardless of what the caller filled in.
func (e *Engine) Add(ctx context.Context, t *task.Task) (int64, error) {
	if strings.TrimSpace(t.Description) == "" {
		return 0, task.NewFault(task.FaultInvariantViolation, "a task needs a description")
	}
	now := time.Now()
	t.Lifecycle = task.LifecycleOpen
	t.QueuePosition = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	var id int64
	err := e.mutate(ctx, func(tx task.Tx) error {
		var err error
		id, err = tx.CreateTask(t)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info("task %d added", id)
	return id, nil
}

// Modify applies fn to the task's descriptive attributes. Lifecycle, queue
// and handoff facts are restored afterwards so a mutator cannot bypass the
// engines that own them.
func (e *Engine) Modify(ctx context.Context, id int64, fn func(*task.Task)) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		if t.Lifecycle.IsTerminal() {
			return task.NewFault(task.FaultTerminalLifecycle,
				"task %d is %s and cannot be modified", id, t.Lifecycle)
		}
		lifecycle, pos := t.Lifecycle, t.QueuePosition
		fn(t)
		t.ID, t.Lifecycle, t.QueuePosition = id, lifecycle, pos
		return tx.UpdateTask(t)
	})
}

// Annotate appends a note to the task. When the task holds the timer, the
// note is tied to the open session.
func (e *Engine) Annotate(ctx context.Context, id int64, body string, at time.Time) error {
	if strings.TrimSpace(body) == "" {
		return task.NewFault(task.FaultInvariantViolation, "an annotation needs a body")
	}
	return e.mutate(ctx, func(tx task.Tx) error {
		if _, err := tx.Task(id); err != nil {
			return err
		}
		a := &task.Annotation{TaskID: id, At: at, Body: body}
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		if open != nil && open.TaskID == id {
			sid := open.ID
			a.SessionID = &sid
		}
		return tx.AddAnnotation(a)
	})
}

// Annotations lists the task's notes in chronological order.
func (e *Engine) Annotations(ctx context.Context, id int64) ([]*task.Annotation, error) {
	var out []*task.Annotation
	err := e.store.View(ctx, func(tx task.Tx) error {
		if _, err := tx.Task(id); err != nil {
			return err
		}
		var err error
		out, err = tx.Annotations(id)
		return err
	})
	return out, err
}

// Sessions lists the task's recorded work sessions in start order.
func (e *Engine) Sessions(ctx context.Context, id int64) ([]*task.Session, error) {
	var out []*task.Session
	err := e.store.View(ctx, func(tx task.Tx) error {
		if _, err := tx.Task(id); err != nil {
			return err
		}
		var err error
		out, err = tx.Sessions(id)
		return err
	})
	return out, err
}

// DropSession removes a closed session from the ledger, the explicit
// correction path. The open session can only end through Stop.
func (e *Engine) DropSession(ctx context.Context, sessionID int64) error {
	return e.mutate(ctx, func(tx task.Tx) error {
		s, err := tx.Session(sessionID)
		if err != nil {
			return err
		}
		if s.Open() {
			return task.NewFault(task.FaultAlreadyRunning,
				"session %d is open; stop the timer instead", sessionID)
		}
		return dropSessionRow(tx, sessionID)
	})
}
