// Package statekit is the convenience surface over the statekit
// packages. Applications that only need atoms, stores, and
// subscriptions can import this package alone; the subpackages stay
// available for the binding layer, families, persistence, and tooling.
//
// The core model in one paragraph: an Atom is an identity-bearing cell
// of state (writable, derived, or async), a Store caches one value per
// atom and schedules change notifications, and subscriptions connect
// the two. Async atoms surface their lifecycle as a result.Result with
// the states Initial, Waiting, Success, and Failure.
package statekit

import (
	"context"

	"github.com/statekit-dev/statekit/pkg/atom"
	"github.com/statekit-dev/statekit/pkg/result"
)

// Store is a scoped atom cache with its own subscriptions and
// notification scheduling.
type Store = atom.Store

// StoreOption configures NewStore.
type StoreOption = atom.StoreOption

// Option configures Value and Derived atoms.
type Option = atom.Option

// SubOption configures Subscribe and Mount.
type SubOption = atom.SubOption

// Getter reads atoms inside derived computations and async runs.
type Getter = atom.Getter

// Putter pushes partial progress from async runs into writable atoms.
type Putter = atom.Putter

// NewStore creates a scoped store.
func NewStore(opts ...StoreOption) *Store {
	return atom.New(opts...)
}

// DefaultStore returns the process-wide shared store.
func DefaultStore() *Store {
	return atom.Default()
}

// Value creates a writable atom with the given initial value.
func Value[T any](initial T, opts ...Option) *atom.Atom[T] {
	return atom.Value(initial, opts...)
}

// Derived creates a read-only atom computed from other atoms.
func Derived[T any](fn func(g Getter) T, opts ...Option) *atom.Atom[T] {
	return atom.Derived(fn, opts...)
}

// Async creates a read-only atom whose value is a result.Result[T]
// produced asynchronously.
func Async[T any](fn func(ctx context.Context, g Getter, p Putter) (T, error), opts ...atom.AsyncOption[T]) *atom.Atom[result.Result[T]] {
	return atom.Async(atom.AsyncFunc[T](fn), opts...)
}

// From reads a's current value through g inside a derived computation
// or async run.
func From[T any](g Getter, a *atom.Atom[T]) T {
	return atom.From(g, a)
}

// Get returns a's current cached value in s.
func Get[T any](s *Store, a *atom.Atom[T]) T {
	return atom.Get(s, a)
}

// Set updates a writable atom's value in s.
func Set[T any](s *Store, a *atom.Atom[T], v T) {
	atom.Set(s, a, v)
}

// Update reads a's value, applies fn, and stores the outcome.
func Update[T any](s *Store, a *atom.Atom[T], fn func(T) T) {
	atom.Update(s, a, fn)
}

// Subscribe registers fn to run after every change of a in s.
func Subscribe[T any](s *Store, a *atom.Atom[T], fn func(T), opts ...SubOption) (release func()) {
	return atom.Subscribe(s, a, fn, opts...)
}

// Mount keeps a warm in s without a handler.
func Mount(s *Store, a atom.AnyAtom, opts ...SubOption) (release func()) {
	return atom.Mount(s, a, opts...)
}

// Refresh forces recomputation of a in s.
func Refresh(s *Store, a atom.AnyAtom) {
	atom.Refresh(s, a)
}

// Invalidate refreshes every atom registered under the given tags in s.
func Invalidate(s *Store, tags ...string) {
	atom.Invalidate(s, tags...)
}

// Batch groups multiple mutations into one notification turn.
func Batch(s *Store, fn func()) {
	s.Batch(fn)
}
