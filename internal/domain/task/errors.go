package task

import (
	"errors"
	"fmt"
)

// FaultKind classifies user-facing failures. Every kind here means the
// request was rejected and nothing was committed; none indicate corruption.
type FaultKind string

const (
	FaultInvariantViolation FaultKind = "invariant_violation"
	FaultEmptyQueue         FaultKind = "empty_queue"
	FaultAlreadyRunning     FaultKind = "already_running"
	FaultNotRunning         FaultKind = "not_running"
	FaultNoSuchTask         FaultKind = "no_such_task"
	FaultNoWaitingRecord    FaultKind = "no_waiting_record"
	FaultTerminalLifecycle  FaultKind = "terminal_lifecycle"
	FaultNonChronological   FaultKind = "non_chronological"
)

// Fault is a user-input error: the operation was well-formed Go-wise but
// asked for something the state model forbids.
type Fault struct {
	Kind FaultKind
	Msg  string
	Err  error
}

func (f *Fault) Error() string {
	if f.Msg != "" {
		return f.Msg
	}
	return string(f.Kind)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault builds a Fault with a printf-formatted message.
func NewFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// StoreFault is a storage-layer failure (driver error, bad schema, disk).
// It is surfaced distinctly from Fault so callers can render "system fault"
// instead of "user mistake".
type StoreFault struct {
	Op  string
	Err error
}

func (f *StoreFault) Error() string {
	return fmt.Sprintf("store: %s: %v", f.Op, f.Err)
}

func (f *StoreFault) Unwrap() error {
	return f.Err
}

// WrapStore wraps a driver error as a StoreFault, passing nil through.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreFault{Op: op, Err: err}
}

// IsUserFault reports whether err is (or wraps) a user-input Fault.
func IsUserFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// KindOf extracts the fault kind from err, or "" for non-user faults.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
