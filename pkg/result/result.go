package result

import "fmt"

// State identifies which variant a Result holds.
type State uint8

const (
	StateInitial State = iota // Never run
	StateWaiting              // Run in progress
	StateSuccess              // Run completed with a value
	StateFailure              // Run completed with an error
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateWaiting:
		return "Waiting"
	case StateSuccess:
		return "Success"
	case StateFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// Result is a closed sum over the four asynchronous outcome states.
// The zero value is Initial. Values are constructed only through
// Initial, Waiting, WaitingFrom, Success, and Failure, so no state
// outside the four variants can exist.
type Result[T any] struct {
	state State

	// value holds the Success payload, or the carried-over stale value
	// while Waiting. hasValue distinguishes "zero value" from "no value".
	value    T
	hasValue bool

	err error
}

// Initial returns the never-run Result.
func Initial[T any]() Result[T] {
	return Result[T]{state: StateInitial}
}

// Waiting returns a Result for a run in progress with no stale value.
func Waiting[T any]() Result[T] {
	return Result[T]{state: StateWaiting}
}

// WaitingFrom returns a Waiting Result that carries the previous
// Result's value forward when it had one. A re-trigger therefore
// re-enters Waiting with the last Success payload instead of resetting
// to Initial.
func WaitingFrom[T any](prev Result[T]) Result[T] {
	r := Result[T]{state: StateWaiting}
	if prev.hasValue {
		r.value = prev.value
		r.hasValue = true
	}
	return r
}

// Success returns a successful Result carrying v.
func Success[T any](v T) Result[T] {
	return Result[T]{state: StateSuccess, value: v, hasValue: true}
}

// Failure returns a failed Result carrying err.
func Failure[T any](err error) Result[T] {
	return Result[T]{state: StateFailure, err: err}
}

// State returns the variant this Result holds.
func (r Result[T]) State() State { return r.state }

// IsInitial reports whether the run has never been triggered.
func (r Result[T]) IsInitial() bool { return r.state == StateInitial }

// IsWaiting reports whether a run is in progress.
func (r Result[T]) IsWaiting() bool { return r.state == StateWaiting }

// IsSuccess reports whether the last run succeeded.
func (r Result[T]) IsSuccess() bool { return r.state == StateSuccess }

// IsFailure reports whether the last run failed.
func (r Result[T]) IsFailure() bool { return r.state == StateFailure }

// Value returns the Success payload, or the stale payload carried by a
// Waiting Result. ok is false when no payload is available.
func (r Result[T]) Value() (v T, ok bool) {
	return r.value, r.hasValue
}

// ValueOr returns the available payload, or fallback when there is none.
func (r Result[T]) ValueOr(fallback T) T {
	if r.hasValue {
		return r.value
	}
	return fallback
}

// Err returns the Failure error, or nil for every other state.
func (r Result[T]) Err() error { return r.err }

// String formats the Result for logs and debug output.
func (r Result[T]) String() string {
	switch r.state {
	case StateWaiting:
		if r.hasValue {
			return fmt.Sprintf("Waiting(stale=%v)", r.value)
		}
		return "Waiting"
	case StateSuccess:
		return fmt.Sprintf("Success(%v)", r.value)
	case StateFailure:
		return fmt.Sprintf("Failure(%v)", r.err)
	default:
		return r.state.String()
	}
}
