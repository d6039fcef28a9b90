package engine

import (
	"context"
	"time"

	"tock/internal/classify"
	"tock/internal/domain/task"
)

// TaskView pairs a task with its derived state, computed from stored facts
// at read time.
type TaskView struct {
	Task       *task.Task
	Status     classify.Status
	TimerOn    bool
	Waiting    *task.Handoff
	HasHistory bool

	// Worked is the total recorded (closed) session time.
	Worked time.Duration
}

// Snapshot is a consistent read of the whole store with derived state, for
// display and reporting layers.
type Snapshot struct {
	TakenAt time.Time

	// Queue holds the queued tasks in position order.
	Queue []*TaskView
	// Tasks holds every task, by id.
	Tasks []*TaskView
	// Running points at the actively timed task's view, if any.
	Running *TaskView
}

// Classify derives the task's one-dimensional status.
func (e *Engine) Classify(ctx context.Context, id int64) (classify.Status, error) {
	var status classify.Status
	err := e.store.View(ctx, func(tx task.Tx) error {
		t, err := tx.Task(id)
		if err != nil {
			return err
		}
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		facts, err := factsFor(tx, t, open)
		if err != nil {
			return err
		}
		status = e.table.Classify(facts)
		return nil
	})
	return status, err
}

// Snapshot reads every task with its derived state in one transaction.
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: time.Now()}
	err := e.store.View(ctx, func(tx task.Tx) error {
		open, err := openSession(tx)
		if err != nil {
			return err
		}
		tasks, err := tx.Tasks()
		if err != nil {
			return err
		}
		byID := make(map[int64]*TaskView, len(tasks))
		for _, t := range tasks {
			view, err := e.viewFor(tx, t, open)
			if err != nil {
				return err
			}
			snap.Tasks = append(snap.Tasks, view)
			byID[t.ID] = view
			if view.TimerOn {
				snap.Running = view
			}
		}

		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		for _, q := range queued {
			snap.Queue = append(snap.Queue, byID[q.ID])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (e *Engine) viewFor(tx task.Tx, t *task.Task, open *task.Session) (*TaskView, error) {
	facts, err := factsFor(tx, t, open)
	if err != nil {
		return nil, err
	}
	waiting, err := tx.Waiting(t.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := tx.Sessions(t.ID)
	if err != nil {
		return nil, err
	}
	var worked time.Duration
	for _, s := range sessions {
		worked += s.Duration()
	}
	return &TaskView{
		Task:       t,
		Status:     e.table.Classify(facts),
		TimerOn:    facts.TimerOn,
		Waiting:    waiting,
		HasHistory: facts.HasHistory,
		Worked:     worked,
	}, nil
}

// factsFor assembles the classification coordinates for one task.
func factsFor(tx task.Tx, t *task.Task, open *task.Session) (classify.Facts, error) {
	waiting, err := tx.Waiting(t.ID)
	if err != nil {
		return classify.Facts{}, err
	}
	hasHistory, err := tx.HasSessions(t.ID)
	if err != nil {
		return classify.Facts{}, err
	}
	return classify.Facts{
		Lifecycle:  t.Lifecycle,
		TimerOn:    open != nil && open.TaskID == t.ID,
		Waiting:    waiting != nil,
		Queued:     t.Queued(),
		HasHistory: hasHistory,
	}, nil
}
