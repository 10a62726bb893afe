package statekit

import (
	"context"
	"testing"
	"time"
)

func TestFacadeCounterFlow(t *testing.T) {
	s := NewStore()
	count := Value(0)
	doubled := Derived(func(g Getter) int {
		return From(g, count) * 2
	})

	var seen []int
	release := Subscribe(s, doubled, func(v int) { seen = append(seen, v) })
	defer release()

	Batch(s, func() {
		Set(s, count, 1)
		Set(s, count, 2)
	})

	if got := Get(s, doubled); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if len(seen) != 1 || seen[0] != 4 {
		t.Errorf("expected one coalesced notification [4], got %v", seen)
	}
}

func TestFacadeAsyncFlow(t *testing.T) {
	s := NewStore()
	greeting := Async(func(ctx context.Context, g Getter, p Putter) (string, error) {
		return "hello", nil
	})

	release := Mount(s, greeting)
	defer release()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if Get(s, greeting).IsSuccess() {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if v, ok := Get(s, greeting).Value(); !ok || v != "hello" {
		t.Errorf("expected hello, got %q (ok=%v)", v, ok)
	}
}
