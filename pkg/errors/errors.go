// Package errors defines the execution core's error taxonomy (spec.md
// §7): a fixed set of Kinds, not Go error types, each with a defined
// propagation rule. Adapted from the teacher's TradSysError
// (abdoElHodaky/tradSys pkg/errors/errors.go) — same structured-error
// shape, Kind enumeration narrowed to exactly what spec.md §7 names.
package errors

import (
	"fmt"
	"runtime"
	"time"
)

// Kind enumerates the error taxonomy of spec.md §7. Each Kind has one
// defined propagation rule; callers must not invent ad-hoc kinds.
type Kind string

const (
	KindAlreadyExists    Kind = "ALREADY_EXISTS"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidPrecision Kind = "INVALID_PRECISION"
	KindInvalidState     Kind = "INVALID_STATE"
	KindRejected         Kind = "REJECTED"
	KindModifyRejected   Kind = "MODIFY_REJECTED"
	KindBookIntegrity    Kind = "BOOK_INTEGRITY"
	KindPendingCalc      Kind = "PENDING_CALC"
	KindExpectedReject   Kind = "EXPECTED_REJECT"
	KindCyclicPublish    Kind = "CYCLIC_PUBLISH"
	// KindStateMachineViolation is the one unrecoverable kind (spec.md
	// §7: "fatal for that order; other orders unaffected").
	KindStateMachineViolation Kind = "ORDER_STATE_MACHINE_VIOLATION"
)

// CoreError is the structured error returned by Cache, Book and engine
// mutations. It never crosses the bus directly (spec.md §7: "the core
// never returns unreportable errors") — callers at the command boundary
// convert it into the matching lifecycle event (OrderRejected,
// OrderCancelRejected, …) that spec.md §4.6 names for that Kind.
type CoreError struct {
	Kind      Kind
	Message   string
	Details   map[string]interface{}
	Timestamp time.Time
	File      string
	Line      int
	Cause     error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Cause }

func (e *CoreError) WithDetail(key string, value interface{}) *CoreError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *CoreError) WithCause(cause error) *CoreError {
	e.Cause = cause
	return e
}

// New creates a CoreError, capturing the caller's location the way the
// teacher's errors.New does, useful when check_integrity() (spec.md
// §4.1) needs to report exactly where a mismatch was detected.
func New(kind Kind, message string) *CoreError {
	_, file, line, _ := runtime.Caller(1)
	return &CoreError{Kind: kind, Message: message, Timestamp: time.Now(), File: file, Line: line}
}

func Newf(kind Kind, format string, args ...interface{}) *CoreError {
	_, file, line, _ := runtime.Caller(1)
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...), Timestamp: time.Now(), File: file, Line: line}
}

// Is reports whether err is a CoreError of the given Kind.
func Is(err error, kind Kind) bool {
	var ce *CoreError
	if As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func As(err error, target **CoreError) bool {
	if err == nil {
		return false
	}
	if ce, ok := err.(*CoreError); ok {
		*target = ce
		return true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return As(u.Unwrap(), target)
	}
	return false
}

func GetKind(err error) Kind {
	var ce *CoreError
	if As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsFatal reports whether err is one of the two unrecoverable kinds
// spec.md §7 names (OrderStateMachineViolation, and CyclicPublish in
// debug builds — CyclicPublish's fatality is left to the bus, which
// tracks its own debug/release mode).
func IsFatal(err error) bool {
	return GetKind(err) == KindStateMachineViolation
}

// Group collects multiple errors, e.g. per-order failures during a
// batch-cancel command (spec.md §4.6 process_batch_cancel) where one bad
// id must not abort the others.
type Group struct {
	errs []error
}

func NewGroup() *Group { return &Group{} }

func (g *Group) Add(err error) {
	if err != nil {
		g.errs = append(g.errs, err)
	}
}

func (g *Group) HasErrors() bool { return len(g.errs) > 0 }
func (g *Group) Errors() []error { return g.errs }

func (g *Group) Error() string {
	switch len(g.errs) {
	case 0:
		return ""
	case 1:
		return g.errs[0].Error()
	default:
		return fmt.Sprintf("%d errors occurred", len(g.errs))
	}
}
