package binding

import (
	"context"
	"time"

	"github.com/statekit-dev/statekit/pkg/atom"
	"github.com/statekit-dev/statekit/pkg/result"
)

// defaultAwaitTimeout caps the wait when the caller passes no positive
// timeout, so an abandoned await cannot hold its bridging subscription
// open forever.
var defaultAwaitTimeout = 30 * time.Second

// AwaitResult bridges a's next resolution into a blocking call: it
// returns the value of the first Success or the error of the first
// Failure observed while waiting, ignoring Initial and Waiting states.
// If a already holds a Success or Failure, that resolves immediately.
//
// Like the other accessors, AwaitResult refuses to operate on an atom
// the binder holds no active subscription for; the bridging
// subscription it makes internally is torn down when AwaitResult
// returns, whatever the outcome, and the atom's own Result state is
// unaffected. A timeout <= 0 falls back to a default cap.
func AwaitResult[T any](ctx context.Context, b *Binder, a *atom.Atom[result.Result[T]], timeout time.Duration) (T, error) {
	b.mustBound("AwaitResult", a)

	type outcome struct {
		value T
		err   error
	}
	resolved := make(chan outcome, 1)
	release := atom.Subscribe(b.store, a, func(r result.Result[T]) {
		var o outcome
		switch {
		case r.IsSuccess():
			o.value, _ = r.Value()
		case r.IsFailure():
			o.err = r.Err()
		default:
			return
		}
		select {
		case resolved <- o:
		default:
		}
	}, atom.Immediate())
	defer release()

	if timeout <= 0 {
		timeout = defaultAwaitTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case o := <-resolved:
		return o.value, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, ErrAwaitTimeout
	}
}
