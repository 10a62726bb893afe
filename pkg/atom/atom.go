package atom

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/statekit-dev/statekit/pkg/result"
)

// Kind identifies an atom's computation rule.
type Kind uint8

const (
	KindValue   Kind = iota + 1 // writable cell
	KindDerived                 // pure function of other atoms
	KindAsync                   // asynchronous producer of a result.Result
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindDerived:
		return "derived"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// globalIDCounter is the source of unique IDs for all atoms.
// Atomic increments keep ID generation lock-free.
var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// AnyAtom is the type-erased view of an Atom used by stores, binders,
// families, and tooling. Only atoms created by this package implement it.
type AnyAtom interface {
	// ID returns the atom's unique identifier.
	ID() uint64

	// Key returns the optional stable key attached with WithKey,
	// or "" when none was set.
	Key() string

	// Kind returns the atom's computation rule kind.
	Kind() Kind

	// LiveSubscribers returns the number of active subscriptions for
	// this atom summed across every store. Families use it to decide
	// when an entry is prunable.
	LiveSubscribers() int

	// LastTouched returns the last time any store read, wrote, or
	// subscribed to this atom.
	LastTouched() time.Time

	base() *atomBase
}

// atomBase is the type-erased core embedded in Atom[T].
// Stores key their caches by *atomBase, so atom identity is pointer
// identity, never value identity.
type atomBase struct {
	id   uint64
	key  string
	kind Kind

	// Exactly one of compute/run is set, according to kind.
	// The rule is immutable after construction.
	compute func(Getter) any
	run     func(ctx context.Context, g Getter, p Putter) (any, error)

	// initial is the writable initial value, or the pre-built initial
	// result.Result for async atoms.
	initial any

	// Type-erased Result constructors, captured by the generic Async
	// constructor so the store can build Results without knowing T.
	wrapWaiting func(prev any) any
	wrapSuccess func(v any) any
	wrapFailure func(err error) any

	// Cross-store liveness, consulted by family pruning and store
	// janitors.
	live      atomic.Int64
	lastTouch atomic.Int64 // unix nanos
}

func (b *atomBase) ID() uint64      { return b.id }
func (b *atomBase) Key() string     { return b.key }
func (b *atomBase) Kind() Kind      { return b.kind }
func (b *atomBase) base() *atomBase { return b }

func (b *atomBase) LiveSubscribers() int {
	return int(b.live.Load())
}

func (b *atomBase) LastTouched() time.Time {
	n := b.lastTouch.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (b *atomBase) touch() {
	b.lastTouch.Store(time.Now().UnixNano())
}

// name formats the atom for panics, logs, and events.
func (b *atomBase) name() string {
	if b.key != "" {
		return b.key
	}
	return fmt.Sprintf("%s#%d", b.kind, b.id)
}

// Atom is an identity-bearing cell of reactive state. Two atoms are the
// same only when they are the same allocated object; the computation
// rule is fixed at construction and only the per-store cached value
// changes over time.
type Atom[T any] struct {
	atomBase
}

// Option configures Value and Derived atoms at construction.
type Option func(*atomBase)

// WithKey attaches a stable string key to the atom. Keys show up in
// logs, events, and snapshots, and are required for persistence.
func WithKey(key string) Option {
	return func(b *atomBase) {
		b.key = key
	}
}

// Value creates a writable atom with the given initial value.
func Value[T any](initial T, opts ...Option) *Atom[T] {
	a := &Atom[T]{atomBase{
		id:      nextID(),
		kind:    KindValue,
		initial: initial,
	}}
	for _, opt := range opts {
		opt(&a.atomBase)
	}
	return a
}

// Derived creates a read-only atom computed from other atoms' current
// values. The function reads dependencies through g; recomputation is
// triggered only when a transitively read atom's value changes. The
// function must be free of observable side effects.
func Derived[T any](fn func(g Getter) T, opts ...Option) *Atom[T] {
	a := &Atom[T]{atomBase{
		id:   nextID(),
		kind: KindDerived,
	}}
	a.compute = func(g Getter) any { return fn(g) }
	for _, opt := range opts {
		opt(&a.atomBase)
	}
	return a
}

// AsyncFunc produces a value asynchronously. The context is cancelled
// when the run is superseded by a newer one or the owning store closes.
// g reads other atoms in the same store without creating dependency
// edges; p pushes partial progress into writable atoms while the run is
// still Waiting.
type AsyncFunc[T any] func(ctx context.Context, g Getter, p Putter) (T, error)

// AsyncOption configures Async atoms at construction.
type AsyncOption[T any] func(*asyncSettings[T])

type asyncSettings[T any] struct {
	key        string
	initial    T
	hasInitial bool
}

// AsyncKey attaches a stable string key to an async atom.
func AsyncKey[T any](key string) AsyncOption[T] {
	return func(s *asyncSettings[T]) {
		s.key = key
	}
}

// InitialValue seeds the atom's cache with Success(v) instead of
// Initial, so readers have a value before the first run completes.
func InitialValue[T any](v T) AsyncOption[T] {
	return func(s *asyncSettings[T]) {
		s.initial = v
		s.hasInitial = true
	}
}

// Async creates a read-only atom whose cached value is a
// result.Result[T]. Get never blocks: it returns Initial (or the seeded
// value) until the first subscription, Mount, or Refresh triggers a run.
// Each run is generation-tagged per store; a newer run cancels the
// previous one and late completions from superseded generations are
// discarded.
func Async[T any](fn AsyncFunc[T], opts ...AsyncOption[T]) *Atom[result.Result[T]] {
	var cfg asyncSettings[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Atom[result.Result[T]]{atomBase{
		id:   nextID(),
		kind: KindAsync,
		key:  cfg.key,
	}}
	if cfg.hasInitial {
		a.initial = result.Success(cfg.initial)
	} else {
		a.initial = result.Initial[T]()
	}
	a.run = func(ctx context.Context, g Getter, p Putter) (any, error) {
		return fn(ctx, g, p)
	}
	a.wrapWaiting = func(prev any) any {
		if prev == nil {
			return result.Waiting[T]()
		}
		return result.WaitingFrom(prev.(result.Result[T]))
	}
	a.wrapSuccess = func(v any) any { return result.Success(v.(T)) }
	a.wrapFailure = func(err error) any { return result.Failure[T](err) }
	return a
}

// Getter reads atoms from the store a computation is running against.
// Derived computations record every read as a dependency edge; async
// runs read without creating edges.
type Getter interface {
	get(b *atomBase) any
}

// From reads a's current value through g.
func From[T any](g Getter, a *Atom[T]) T {
	return g.get(a.base()).(T)
}

// Putter lets an asynchronous run push partial progress into writable
// atoms (for example streaming text into a side atom) while its own
// Result is still Waiting.
type Putter interface {
	put(b *atomBase, v any)
}

// Put writes v to the writable atom a through p.
func Put[T any](p Putter, a *Atom[T], v T) {
	p.put(a.base(), v)
}
