// Package result provides the four-state wrapper for asynchronous atom
// outcomes: Initial, Waiting, Success, and Failure.
//
// A Result is an immutable value. Asynchronous atoms publish a new Result
// on every state transition, and components pattern-match on it with Match:
//
//	label := result.Match(r, result.Handlers[[]User, string]{
//	    OnWaiting: func(stale []User, ok bool) string { return "loading..." },
//	    OnSuccess: func(users []User) string { return fmt.Sprintf("%d users", len(users)) },
//	    OnFailure: func(err error) string { return err.Error() },
//	})
//
// Waiting may carry the last known Success value so components can keep
// rendering stale data while a refresh is in flight.
package result
