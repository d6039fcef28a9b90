// Package task defines the tracker's domain model and store port.
//
// The model keeps a small set of orthogonal facts per task (lifecycle,
// queue membership, recorded work sessions, external-handoff state) and
// everything the user sees (the classification, the snapshot view) is
// derived from those facts on demand, never stored.
package task

import (
	"strings"
	"time"
)

// Lifecycle is the task's own lifecycle state. Closed and Cancelled are
// terminal: once reached, queue, timer and handoff facts may no longer
// change for that task.
type Lifecycle string

const (
	LifecycleOpen      Lifecycle = "open"
	LifecycleClosed    Lifecycle = "closed"
	LifecycleCancelled Lifecycle = "cancelled"
)

// validLifecycles enumerates all accepted lifecycle values.
var validLifecycles = map[Lifecycle]bool{
	LifecycleOpen:      true,
	LifecycleClosed:    true,
	LifecycleCancelled: true,
}

// IsValid returns true if the lifecycle is one of the recognized values.
func (l Lifecycle) IsValid() bool {
	return validLifecycles[l]
}

// IsTerminal reports whether the lifecycle is a final state.
func (l Lifecycle) IsTerminal() bool {
	return l == LifecycleClosed || l == LifecycleCancelled
}

// Task is the durable task record. QueuePosition is nil for tasks that are
// not on the ready queue; when present, positions are dense and strictly
// ordered (0..n-1) across all queued tasks.
type Task struct {
	ID int64

	Description string
	Project     string
	Tags        []string

	Due       *time.Time
	Scheduled *time.Time
	Wait      *time.Time

	// Allocation is the user's work-time estimate. Zero means unset.
	Allocation time.Duration

	Lifecycle     Lifecycle
	QueuePosition *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Queued reports whether the task currently holds a queue position.
func (t *Task) Queued() bool {
	return t.QueuePosition != nil
}

// TagString renders the tag set in its stored space-joined form.
func (t *Task) TagString() string {
	return strings.Join(t.Tags, " ")
}

// ParseTags splits a stored space-joined tag string, dropping empties.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// Session is one start/stop-bounded interval of work on a task. End is nil
// while the session is open; at most one session store-wide may be open at
// any instant.
type Session struct {
	ID     int64
	TaskID int64
	Start  time.Time
	End    *time.Time
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.End == nil
}

// Duration returns the recorded span of a closed session, zero when open.
func (s *Session) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Handoff records that a task has been sent to a third party and is waiting
// on them. At most one waiting record exists per task; clearing a handoff
// deletes the record outright, so "not waiting" has a single representation.
type Handoff struct {
	TaskID    int64
	Recipient string
	Note      string
	SentAt    time.Time
}

// Annotation is an append-only note on a task, optionally tied to the work
// session during which it was written. Annotations never affect session or
// queue semantics.
type Annotation struct {
	ID        int64
	TaskID    int64
	SessionID *int64
	At        time.Time
	Body      string
}

// TimerState is the global timer slot's state, derived from the store: On
// for the task owning the open session, Off for everyone else.
type TimerState string

const (
	TimerOff TimerState = "off"
	TimerOn  TimerState = "on"
)
