package atom

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// tracker is the Getter handed to computations. It records which atoms
// a derived computation reads so the store can rewire dependency edges,
// and it detects cyclic derivations by keeping the chain of entries
// currently being computed.
//
// A tracker with an empty stack records nothing; that is the
// non-tracking getter async runs receive.
type tracker struct {
	s     *Store
	stack []*trackFrame
}

type trackFrame struct {
	e    *entry
	deps map[*entry]struct{}
}

func newTracker(s *Store) *tracker {
	return &tracker{s: s}
}

// get implements Getter.
func (t *tracker) get(b *atomBase) any {
	t.s.mu.Lock()
	e := t.s.ensure(b)
	e.lastActive = time.Now()
	b.touch()

	// Cycle check: reading an atom that is already being computed
	// higher up this chain can only loop forever. Fail fast instead.
	for _, f := range t.stack {
		if f.e == e {
			chain := t.chainLocked(e)
			t.s.mu.Unlock()
			panic(fmt.Sprintf("statekit: cyclic derived atoms: %s", chain))
		}
	}

	if len(t.stack) > 0 {
		t.stack[len(t.stack)-1].deps[e] = struct{}{}
	}

	if b.kind != KindDerived || e.valid {
		v := e.value
		t.s.mu.Unlock()
		return v
	}
	t.s.mu.Unlock()

	v, _ := t.s.recompute(e, t)
	return v
}

// chainLocked formats the computation chain for the cycle panic.
// The caller must hold s.mu.
func (t *tracker) chainLocked(repeat *entry) string {
	var b strings.Builder
	for _, f := range t.stack {
		b.WriteString(f.e.atom.name())
		b.WriteString(" -> ")
	}
	b.WriteString(repeat.atom.name())
	return b.String()
}

// recompute runs a derived entry's computation, rewires its dependency
// edges to what this run actually read, and stores the new value.
// Panics from the computation propagate to the caller.
func (s *Store) recompute(e *entry, t *tracker) (v any, changed bool) {
	frame := &trackFrame{e: e, deps: make(map[*entry]struct{})}
	t.stack = append(t.stack, frame)

	defer func() {
		t.stack = t.stack[:len(t.stack)-1]
	}()

	v = e.atom.compute(t)

	s.mu.Lock()
	for old := range e.deps {
		delete(old.dependents, e)
	}
	e.deps = frame.deps
	for d := range e.deps {
		d.dependents[e] = struct{}{}
	}
	changed = !e.valid || !reflect.DeepEqual(e.value, v)
	e.value = v
	e.valid = true
	e.lastActive = time.Now()
	s.mu.Unlock()

	return v, changed
}

// runPutter is the Putter async runs use to push partial progress into
// writable atoms of the same store.
type runPutter struct {
	s *Store
}

// put implements Putter by going through the normal write path, so
// partial progress notifies subscribers like any other Set.
func (p runPutter) put(b *atomBase, v any) {
	p.s.write(b, v)
}
