package result

import (
	"errors"
	"testing"
)

func allHandlers() Handlers[int, string] {
	return Handlers[int, string]{
		OnInitial: func() string { return "initial" },
		OnWaiting: func(stale int, ok bool) string {
			if ok {
				return "waiting-stale"
			}
			return "waiting"
		},
		OnSuccess: func(v int) string { return "success" },
		OnFailure: func(err error) string { return "failure:" + err.Error() },
	}
}

func TestMatchDispatch(t *testing.T) {
	h := allHandlers()

	if got := Match(Initial[int](), h); got != "initial" {
		t.Errorf("Initial dispatched to %q", got)
	}
	if got := Match(Waiting[int](), h); got != "waiting" {
		t.Errorf("Waiting dispatched to %q", got)
	}
	if got := Match(Success(1), h); got != "success" {
		t.Errorf("Success dispatched to %q", got)
	}
	if got := Match(Failure[int](errors.New("boom")), h); got != "failure:boom" {
		t.Errorf("Failure dispatched to %q", got)
	}
}

func TestMatchWaitingTakesPriorityOverSuccess(t *testing.T) {
	// A Waiting Result with a stale Success payload must dispatch
	// OnWaiting, never OnSuccess, when both branches are supplied.
	r := WaitingFrom(Success(5))
	got := Match(r, allHandlers())
	if got != "waiting-stale" {
		t.Errorf("expected OnWaiting branch, got %q", got)
	}
}

func TestMatchWaitingFallsThroughToSuccess(t *testing.T) {
	// Without an OnWaiting branch, a stale payload reaches OnSuccess.
	r := WaitingFrom(Success(5))
	got := Match(r, Handlers[int, string]{
		OnSuccess: func(v int) string {
			if v != 5 {
				t.Errorf("expected stale value 5, got %d", v)
			}
			return "success"
		},
	})
	if got != "success" {
		t.Errorf("expected fall-through to OnSuccess, got %q", got)
	}

	// Waiting with no stale value and no OnWaiting yields the zero value.
	if got := Match(Waiting[int](), Handlers[int, string]{OnSuccess: func(int) string { return "x" }}); got != "" {
		t.Errorf("expected zero value, got %q", got)
	}
}

func TestMatchMissingBranchReturnsZero(t *testing.T) {
	if got := Match(Failure[int](errors.New("e")), Handlers[int, string]{}); got != "" {
		t.Errorf("expected zero value for missing branch, got %q", got)
	}
}
