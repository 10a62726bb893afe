// Package family memoizes parameterized atoms.
//
// Calling an atom constructor twice builds two distinct atoms, because
// atom identity is pointer identity. A Family fixes the identity per
// parameter: every call with an equal parameter returns the same atom,
// so independent call sites subscribing to family.Get(42) share one
// cache entry, one subscriber list, and one in-flight async run per
// store.
package family

import (
	"sync"
	"time"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// Family memoizes atoms by a comparable parameter. The zero value is
// not usable; construct with New.
type Family[P comparable, T any] struct {
	build func(P) *atom.Atom[T]

	mu      sync.Mutex
	entries map[P]*atom.Atom[T]
}

// New creates a family from a per-parameter constructor. The
// constructor runs at most once per distinct parameter; the atom it
// returns is cached for all later calls.
func New[P comparable, T any](build func(P) *atom.Atom[T]) *Family[P, T] {
	return &Family[P, T]{
		build:   build,
		entries: make(map[P]*atom.Atom[T]),
	}
}

// Get returns the memoized atom for param, building it on first use.
func (f *Family[P, T]) Get(param P) *atom.Atom[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.entries[param]; ok {
		return a
	}
	a := f.build(param)
	f.entries[param] = a
	return a
}

// Peek returns the memoized atom for param without building one.
func (f *Family[P, T]) Peek(param P) (*atom.Atom[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.entries[param]
	return a, ok
}

// Len returns the number of memoized parameters.
func (f *Family[P, T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Delete drops the memoization for param. A later Get builds a fresh
// atom with a new identity; stores holding cached values for the old
// atom are unaffected until their own eviction runs.
func (f *Family[P, T]) Delete(param P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, param)
}

// Prune drops every memoized atom that has no live subscribers in any
// store and was last touched more than idle ago. It returns the number
// of entries removed.
//
// Pruning is how long-lived families (one atom per list item, per user,
// per request id) avoid unbounded growth: parameters that went out of
// use forget their identity, everything still subscribed survives.
func (f *Family[P, T]) Prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for param, a := range f.entries {
		if a.LiveSubscribers() > 0 {
			continue
		}
		if touched := a.LastTouched(); !touched.IsZero() && touched.After(cutoff) {
			continue
		}
		delete(f.entries, param)
		removed++
	}
	return removed
}
