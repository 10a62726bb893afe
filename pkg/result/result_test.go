package result

import (
	"errors"
	"testing"
)

func TestZeroValueIsInitial(t *testing.T) {
	var r Result[int]
	if !r.IsInitial() {
		t.Errorf("zero Result should be Initial, got %s", r.State())
	}
	if _, ok := r.Value(); ok {
		t.Error("Initial should carry no value")
	}
}

func TestSuccessCarriesValue(t *testing.T) {
	r := Success(42)
	if !r.IsSuccess() {
		t.Fatalf("expected Success, got %s", r.State())
	}
	v, ok := r.Value()
	if !ok || v != 42 {
		t.Errorf("expected value 42, got %d (ok=%v)", v, ok)
	}
	if r.Err() != nil {
		t.Errorf("Success should have nil error, got %v", r.Err())
	}
}

func TestFailureCarriesError(t *testing.T) {
	boom := errors.New("boom")
	r := Failure[int](boom)
	if !r.IsFailure() {
		t.Fatalf("expected Failure, got %s", r.State())
	}
	if !errors.Is(r.Err(), boom) {
		t.Errorf("expected boom error, got %v", r.Err())
	}
	if _, ok := r.Value(); ok {
		t.Error("Failure should carry no value")
	}
}

func TestWaitingFromCarriesStaleValue(t *testing.T) {
	// Success -> Waiting keeps the last value
	w := WaitingFrom(Success("cached"))
	if !w.IsWaiting() {
		t.Fatalf("expected Waiting, got %s", w.State())
	}
	v, ok := w.Value()
	if !ok || v != "cached" {
		t.Errorf("expected stale value %q, got %q (ok=%v)", "cached", v, ok)
	}

	// Waiting -> Waiting keeps carrying it
	w2 := WaitingFrom(w)
	v, ok = w2.Value()
	if !ok || v != "cached" {
		t.Errorf("re-entered Waiting should keep stale value, got %q (ok=%v)", v, ok)
	}

	// Failure -> Waiting carries nothing
	w3 := WaitingFrom(Failure[string](errors.New("x")))
	if _, ok := w3.Value(); ok {
		t.Error("Waiting after Failure should carry no stale value")
	}

	// Initial -> Waiting carries nothing
	w4 := WaitingFrom(Initial[string]())
	if _, ok := w4.Value(); ok {
		t.Error("Waiting after Initial should carry no stale value")
	}
}

func TestValueOr(t *testing.T) {
	if got := Initial[int]().ValueOr(7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
	if got := Success(3).ValueOr(7); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := WaitingFrom(Success(3)).ValueOr(7); got != 3 {
		t.Errorf("Waiting with stale value should return it, got %d", got)
	}
}
