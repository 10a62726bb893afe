package result

// Handlers holds one branch per Result state for Match.
// Any branch may be nil; see Match for the fall-through rules.
type Handlers[T, R any] struct {
	// OnInitial handles a Result that has never been triggered.
	OnInitial func() R

	// OnWaiting handles an in-flight run. stale is the carried-over
	// Success payload and ok reports whether one is available.
	OnWaiting func(stale T, ok bool) R

	// OnSuccess handles a completed run's value.
	OnSuccess func(T) R

	// OnFailure handles a failed run's error.
	OnFailure func(error) R
}

// Match dispatches r to the matching branch and returns its output.
//
// Precedence: a Waiting Result always dispatches OnWaiting when that
// branch is supplied, even when it carries a stale Success payload and
// OnSuccess is also supplied. When OnWaiting is absent, a Waiting Result
// with a stale payload falls through to OnSuccess with that payload.
// When no branch applies, Match returns the zero value of R.
func Match[T, R any](r Result[T], h Handlers[T, R]) R {
	switch r.State() {
	case StateInitial:
		if h.OnInitial != nil {
			return h.OnInitial()
		}
	case StateWaiting:
		if h.OnWaiting != nil {
			stale, ok := r.Value()
			return h.OnWaiting(stale, ok)
		}
		if stale, ok := r.Value(); ok && h.OnSuccess != nil {
			return h.OnSuccess(stale)
		}
	case StateSuccess:
		if h.OnSuccess != nil {
			v, _ := r.Value()
			return h.OnSuccess(v)
		}
	case StateFailure:
		if h.OnFailure != nil {
			return h.OnFailure(r.Err())
		}
	}
	var zero R
	return zero
}
