package atom

import (
	"context"
	"sync"
	"testing"

	"github.com/statekit-dev/statekit/pkg/result"
)

func TestInvalidateRefreshesTaggedAtoms(t *testing.T) {
	// Two async atoms share a tag; a third does not. Invalidating the
	// tag re-runs exactly the tagged two.
	s := New()
	var mu sync.Mutex
	runs := make(map[string]int)

	mk := func(name string) *Atom[result.Result[string]] {
		return Async(func(ctx context.Context, g Getter, p Putter) (string, error) {
			mu.Lock()
			runs[name]++
			mu.Unlock()
			return name, nil
		}, AsyncKey[string](name))
	}
	x := mk("x")
	y := mk("y")
	z := mk("z")

	rx := Mount(s, x, WithTags("session"))
	defer rx()
	ry := Mount(s, y, WithTags("session"))
	defer ry()
	rz := Mount(s, z)
	defer rz()

	waitFor(t, "initial runs", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs["x"] == 1 && runs["y"] == 1 && runs["z"] == 1
	})

	Invalidate(s, "session")

	waitFor(t, "tagged re-runs", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs["x"] == 2 && runs["y"] == 2
	})
	mu.Lock()
	zRuns := runs["z"]
	mu.Unlock()
	if zRuns != 1 {
		t.Errorf("untagged atom must not be refreshed, got %d runs", zRuns)
	}
}

func TestInvalidateUnknownTagIsNoOp(t *testing.T) {
	s := New()
	Invalidate(s, "nobody-registered-this")
}

func TestTagAssociationIsSubscriptionScoped(t *testing.T) {
	s := New()
	a := Value(1)

	r1 := Subscribe(s, a, func(int) {}, WithTags("t"))
	r2 := Subscribe(s, a, func(int) {}, WithTags("t"))

	if got := s.TaggedAtoms("t"); len(got) != 1 {
		t.Fatalf("expected one tagged atom, got %v", got)
	}

	r1()
	if got := s.TaggedAtoms("t"); len(got) != 1 {
		t.Errorf("tag must survive while another registering subscription is live, got %v", got)
	}

	r2()
	if got := s.TaggedAtoms("t"); len(got) != 0 {
		t.Errorf("releasing the last registering subscription must clear the tag, got %v", got)
	}
}

func TestInvalidateMultipleTagsDeduplicates(t *testing.T) {
	// An atom registered under both tags is refreshed once per
	// Invalidate call, not once per tag.
	s := New()
	var mu sync.Mutex
	runs := 0
	a := Async(func(ctx context.Context, g Getter, p Putter) (int, error) {
		mu.Lock()
		runs++
		mu.Unlock()
		return 0, nil
	})

	release := Mount(s, a, WithTags("one", "two"))
	defer release()

	waitFor(t, "initial run", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	})

	Invalidate(s, "one", "two")
	waitFor(t, "single re-run", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 2
	})
	mu.Lock()
	got := runs
	mu.Unlock()
	if got != 2 {
		t.Errorf("expected 2 runs total, got %d", got)
	}
}
