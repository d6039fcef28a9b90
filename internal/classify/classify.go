// Package classify derives the single user-facing status of a task from
// its orthogonal stored facts. The derivation is a lookup against a
// replaceable table so users can rename or remap the statuses without any
// storage change; nothing in this package touches the store.
package classify

import (
	"fmt"
	"strings"

	"tock/internal/domain/task"
)

// Status is the derived, one-dimensional classification shown to the user.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusActive     Status = "active"
	StatusExternal   Status = "external"
	StatusProposed   Status = "proposed"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusSuspended  Status = "suspended"
)

// Facts is the read-only snapshot of stored facts classification needs.
type Facts struct {
	Lifecycle  task.Lifecycle
	TimerOn    bool
	Waiting    bool
	Queued     bool
	HasHistory bool
}

// Table maps the classification coordinates to statuses. Precedence runs
// top to bottom: terminal lifecycle, then active timer, then external
// waiting, then the (queued, history) matrix.
type Table struct {
	Completed Status
	Cancelled Status
	Active    Status
	External  Status

	// Matrix is keyed [queued][history].
	Matrix [2][2]Status
}

// DefaultTable returns the stock mapping.
func DefaultTable() *Table {
	return &Table{
		Completed: StatusCompleted,
		Cancelled: StatusCancelled,
		Active:    StatusActive,
		External:  StatusExternal,
		Matrix: [2][2]Status{
			{StatusProposed, StatusSuspended}, // not queued: no history, history
			{StatusPlanned, StatusInProgress}, // queued: no history, history
		},
	}
}

// Classify resolves the status for the given facts. It is total: every
// combination of facts maps to exactly one status.
func (t *Table) Classify(f Facts) Status {
	switch f.Lifecycle {
	case task.LifecycleClosed:
		return t.Completed
	case task.LifecycleCancelled:
		return t.Cancelled
	}
	if f.TimerOn {
		return t.Active
	}
	if f.Waiting {
		return t.External
	}
	q, h := 0, 0
	if f.Queued {
		q = 1
	}
	if f.HasHistory {
		h = 1
	}
	return t.Matrix[q][h]
}

// Override keys accepted in config, matching the table coordinates.
const (
	keyCompleted = "completed"
	keyCancelled = "cancelled"
	keyActive    = "active"
	keyExternal  = "external"
	keyProposed  = "proposed"    // not queued, no history
	keyPlanned   = "planned"     // queued, no history
	keyInProg    = "in_progress" // queued, has history
	keySuspended = "suspended"   // not queued, has history
)

// TableWithOverrides builds a table from the default mapping plus the
// user's overrides, keyed by coordinate name. Unknown keys are rejected so
// a typo in config does not silently fall through to defaults.
func TableWithOverrides(overrides map[string]string) (*Table, error) {
	t := DefaultTable()
	for key, val := range overrides {
		status := Status(strings.TrimSpace(val))
		if status == "" {
			return nil, fmt.Errorf("classification override %q: empty status", key)
		}
		switch strings.TrimSpace(strings.ToLower(key)) {
		case keyCompleted:
			t.Completed = status
		case keyCancelled:
			t.Cancelled = status
		case keyActive:
			t.Active = status
		case keyExternal:
			t.External = status
		case keyProposed:
			t.Matrix[0][0] = status
		case keySuspended:
			t.Matrix[0][1] = status
		case keyPlanned:
			t.Matrix[1][0] = status
		case keyInProg:
			t.Matrix[1][1] = status
		default:
			return nil, fmt.Errorf("classification override %q: unknown coordinate", key)
		}
	}
	return t, nil
}
