// Package result defines the two-variant success/failure value used across
// the engine, plus the read-only Value surface shared by resolved results,
// recorded plan nodes, and workflow input placeholders.
package result

import "fmt"

// Value is the read-only surface of a task outcome.
//
// Three things implement it: Result (a resolved outcome), a recorded plan
// node (always "ok", Value() returns the node itself), and an input
// placeholder. Downstream code can therefore consume a recorded node exactly
// like a resolved value.
type Value interface {
	// OK reports whether the value represents success.
	OK() bool
	// Failed reports the inverse of OK.
	Failed() bool
	// Err returns the failure message, or "" for success.
	Err() string
	// Value returns the success payload. Calling it on a failed Result is a
	// programmer error and panics.
	Value() any
}

// Result is an immutable two-variant value: Ok(payload) or Err(message).
// Exactly one variant is populated.
type Result struct {
	ok    bool
	value any
	err   string
}

// Ok returns a successful Result carrying value.
func Ok(value any) Result {
	return Result{ok: true, value: value}
}

// Err returns a failed Result carrying message.
func Err(message string) Result {
	return Result{err: message}
}

// Errf returns a failed Result with a formatted message.
func Errf(format string, args ...any) Result {
	return Result{err: fmt.Sprintf(format, args...)}
}

// OK reports whether the result is the Ok variant.
func (r Result) OK() bool { return r.ok }

// Failed reports whether the result is the Err variant.
func (r Result) Failed() bool { return !r.ok }

// Err returns the failure message, or "" for Ok.
func (r Result) Err() string { return r.err }

// Value returns the Ok payload.
//
// Calling Value on an Err result is a programmer error: production code must
// branch on OK/Failed first. It panics rather than returning a sentinel.
func (r Result) Value() any {
	if !r.ok {
		panic(fmt.Sprintf("result: Value() called on failed result: %s", r.err))
	}
	return r.value
}

var _ Value = Result{}
