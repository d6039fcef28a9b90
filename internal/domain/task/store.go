package task

import (
	"context"
	"time"
)

// Store is the persistence port for the fact tables. Every mutating
// operation in the system runs inside exactly one Update call; partial
// application is never observable.
type Store interface {
	// EnsureSchema creates the fact tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// Update runs fn inside a single writable transaction. The transaction
	// commits only if fn returns nil; any error rolls everything back.
	// The store guarantees single-writer isolation, so a check performed
	// inside fn (e.g. "no open session exists") holds through commit.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx exposes the fact tables to one transaction. Implementations wrap all
// driver errors as StoreFault.
type Tx interface {
	// Tasks.
	CreateTask(t *Task) (int64, error)
	Task(id int64) (*Task, error)
	Tasks() ([]*Task, error)
	UpdateTask(t *Task) error

	// Queue facts. Queued returns tasks in position order; SetQueuePosition
	// with nil removes the task from the queue.
	Queued() ([]*Task, error)
	SetQueuePosition(id int64, pos *int) error

	// Session facts.
	CreateSession(s *Session) (int64, error)
	Session(id int64) (*Session, error)
	Sessions(taskID int64) ([]*Session, error)
	UpdateSession(s *Session) error
	DeleteSession(id int64) error

	// OpenSessions returns every session with no end timestamp. A healthy
	// store has zero or one; the invariant guard checks, not assumes.
	OpenSessions() ([]*Session, error)

	// LatestClosedSession returns the closed session with the greatest end
	// timestamp across all tasks, or nil when none exist. The micro-session
	// merge/purge policy looks back through it.
	LatestClosedSession() (*Session, error)

	// SessionsOverlapping returns closed sessions intersecting [start, end).
	SessionsOverlapping(start, end time.Time) ([]*Session, error)

	// HasSessions reports whether any session (open or closed) exists for
	// the task; it drives the has-history classification coordinate.
	HasSessions(taskID int64) (bool, error)

	// External handoff facts. Waiting returns nil when no record exists.
	Waiting(taskID int64) (*Handoff, error)
	WaitingAll() ([]*Handoff, error)
	CreateWaiting(h *Handoff) error
	DeleteWaiting(taskID int64) error

	// Annotations. Session back-references must never dangle: deleting a
	// session detaches its annotations, merging re-points them.
	AddAnnotation(a *Annotation) error
	Annotations(taskID int64) ([]*Annotation, error)
	DetachAnnotations(sessionID int64) error
	ReassignAnnotations(fromSessionID, toSessionID int64) error
}
