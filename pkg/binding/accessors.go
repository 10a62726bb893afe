package binding

import (
	"fmt"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// Read returns a's current value through b. Reading an atom the binder
// is not subscribed to is a lifecycle bug and panics; bind the atom
// declaratively or with Bind first.
func Read[T any](b *Binder, a *atom.Atom[T]) T {
	b.mustBound("Read", a)
	return atom.Get(b.store, a)
}

// Write sets a writable bound atom's value through b.
func Write[T any](b *Binder, a *atom.Atom[T], v T) {
	b.mustBound("Write", a)
	if a.Kind() != atom.KindValue {
		panic(fmt.Errorf("statekit: Write on %s atom #%d: %w", a.Kind(), a.ID(), ErrNotWritable))
	}
	atom.Set(b.store, a, v)
}

// ReadWrite applies fn to a's current value and writes the outcome.
func ReadWrite[T any](b *Binder, a *atom.Atom[T], fn func(T) T) {
	b.mustBound("ReadWrite", a)
	if a.Kind() != atom.KindValue {
		panic(fmt.Errorf("statekit: ReadWrite on %s atom #%d: %w", a.Kind(), a.ID(), ErrNotWritable))
	}
	atom.Update(b.store, a, fn)
}

// Refresh forces recomputation of a bound atom: derived atoms re-run
// their rule, async atoms cancel any in-flight run and start a new
// generation.
func (b *Binder) Refresh(a atom.AnyAtom) {
	b.mustBound("Refresh", a)
	atom.Refresh(b.store, a)
}

// Invalidate refreshes every atom registered under any of the given
// tags in the binder's store.
func (b *Binder) Invalidate(tags ...string) {
	b.mustAttached("Invalidate")
	atom.Invalidate(b.store, tags...)
}

// Bind establishes an imperative subscription mid-lifetime. The handler
// receives every change until the returned release is called or the
// binder detaches, whichever comes first. Unlike Field, Bind does not
// touch any component field and does not request renders.
func Bind[T any](b *Binder, a *atom.Atom[T], fn func(T), opts ...atom.SubOption) (release func()) {
	b.mustAttached("Bind")
	return b.track(a.ID(), atom.Subscribe(b.store, a, fn, opts...))
}
