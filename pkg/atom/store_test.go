package atom

import (
	"strings"
	"testing"
)

func TestGetReturnsInitialValue(t *testing.T) {
	s := New()
	count := Value(7)

	if got := Get(s, count); got != 7 {
		t.Errorf("expected initial value 7, got %d", got)
	}
}

func TestSetGetCacheCoherence(t *testing.T) {
	s := New()
	count := Value(0)

	Set(s, count, 42)
	if got := Get(s, count); got != 42 {
		t.Errorf("expected 42 immediately after Set, got %d", got)
	}
}

func TestCounterScenario(t *testing.T) {
	s := New()
	count := Value(0)

	for i := 0; i < 3; i++ {
		Set(s, count, Get(s, count)+1)
	}
	if got := Get(s, count); got != 3 {
		t.Errorf("expected 3 after three increments, got %d", got)
	}
}

func TestStoreIsolation(t *testing.T) {
	// The same atom is live in two stores with independent caches.
	r1 := New()
	r2 := New()
	a := Value(0)

	Set(r1, a, 1)
	Set(r2, a, 2)

	if got := Get(r1, a); got != 1 {
		t.Errorf("r1 should hold 1, got %d", got)
	}
	if got := Get(r2, a); got != 2 {
		t.Errorf("r2 should hold 2, got %d", got)
	}
}

func TestSetOnDerivedPanics(t *testing.T) {
	s := New()
	d := Derived(func(g Getter) int { return 1 }, WithKey("doubled"))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Set on a derived atom should panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "doubled") {
			t.Errorf("panic should name the atom, got %v", r)
		}
	}()
	Set(s, d, 5)
}

func TestUpdate(t *testing.T) {
	s := New()
	count := Value(10)

	Update(s, count, func(n int) int { return n * 2 })
	if got := Get(s, count); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestAtomIdentityAndKeys(t *testing.T) {
	a := Value(0, WithKey("count"))
	b := Value(0, WithKey("count"))

	if a.ID() == b.ID() {
		t.Error("distinct atoms must have distinct IDs")
	}
	if a.Key() != "count" || b.Key() != "count" {
		t.Error("keys should be preserved")
	}
	if a.Kind() != KindValue {
		t.Errorf("expected KindValue, got %s", a.Kind())
	}
}

func TestSnapshot(t *testing.T) {
	s := New(WithName("snaptest"))
	a := Value(1, WithKey("one"))
	b := Value(2)

	Get(s, a)
	release := Subscribe(s, b, func(int) {}, WithTags("nums"))
	defer release()

	infos := s.Snapshot()
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}

	byID := make(map[uint64]AtomInfo)
	for _, info := range infos {
		byID[info.ID] = info
	}
	if info := byID[a.ID()]; info.Key != "one" || info.Value != "1" {
		t.Errorf("unexpected snapshot for a: %+v", info)
	}
	info := byID[b.ID()]
	if info.Subscribers != 1 {
		t.Errorf("expected 1 subscriber for b, got %d", info.Subscribers)
	}
	if len(info.Tags) != 1 || info.Tags[0] != "nums" {
		t.Errorf("expected tag nums for b, got %v", info.Tags)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New()
	s.Close()
	s.Close()
}
