package atom

import (
	"sync"
	"time"
)

// Get returns a's current cached value in s. Writable atoms return the
// cached (or initial) value; derived atoms compute synchronously on
// first read and recompute lazily after invalidation; async atoms
// return the cached result.Result without blocking, Initial if a run
// was never triggered.
//
// A derived computation that panics propagates to this caller; handle
// it like any other synchronous error.
func Get[T any](s *Store, a *Atom[T]) T {
	return s.read(a.base()).(T)
}

// Set updates a writable atom's cached value in s and schedules
// notification of its subscribers and dependents. Setting an unchanged
// value is a no-op. Set on a derived or async atom panics: that is an
// API contract violation, not a runtime data condition.
func Set[T any](s *Store, a *Atom[T], v T) {
	s.write(a.base(), v)
}

// Update reads a's current value, applies fn, and stores the outcome.
func Update[T any](s *Store, a *Atom[T], fn func(T) T) {
	s.write(a.base(), fn(Get(s, a)))
}

// SubOption configures Subscribe.
type SubOption func(*subConfig)

type subConfig struct {
	immediate bool
	tags      []string
}

// Immediate invokes the handler once synchronously with the current
// value when the subscription is established.
func Immediate() SubOption {
	return func(c *subConfig) { c.immediate = true }
}

// WithTags registers the atom under the given reactivity tags for the
// lifetime of this subscription. Tag association is subscription-scoped:
// releasing the last subscription that registered a tag removes the
// atom from that tag's set.
func WithTags(tags ...string) SubOption {
	return func(c *subConfig) { c.tags = append(c.tags, tags...) }
}

// Subscribe registers fn to be called with a's value after every
// change in s. For async atoms the first subscription triggers the
// first run. The returned release function is idempotent.
func Subscribe[T any](s *Store, a *Atom[T], fn func(T), opts ...SubOption) (release func()) {
	var erased func(any)
	if fn != nil {
		erased = func(v any) { fn(v.(T)) }
	}
	return s.subscribe(a.base(), erased, opts...)
}

// Mount keeps a warm in s without a visible handler. Side-effecting
// async atoms use it to start running before any component subscribes.
// The returned release function is idempotent.
func Mount(s *Store, a AnyAtom, opts ...SubOption) (release func()) {
	return s.subscribe(a.base(), nil, opts...)
}

func (s *Store) subscribe(b *atomBase, fn func(any), opts ...SubOption) func() {
	var cfg subConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	e := s.ensure(b)
	s.subSeq++
	id := s.subSeq
	e.subs[id] = &subscriber{id: id, fn: fn, tags: cfg.tags}
	e.lastActive = time.Now()
	b.live.Add(1)
	b.touch()
	for _, tag := range cfg.tags {
		s.tagAddLocked(tag, b)
	}
	firstActivation := b.kind == KindAsync && e.gen == 0
	s.mu.Unlock()

	ev := eventFor(EventSubscribe, b)
	ev.Tags = cfg.tags
	s.emit(ev)

	if firstActivation {
		s.refreshAsync(b)
	}
	if b.kind == KindDerived {
		// Establish dependency edges now so changes to transitively
		// read atoms reach this subscriber. A failing computation is
		// logged and surfaces on the next read.
		s.warmDerived(e)
	}
	if cfg.immediate && fn != nil {
		fn(s.read(b))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if live, ok := s.entries[b]; ok {
				delete(live.subs, id)
			}
			for _, tag := range cfg.tags {
				s.tagRemoveLocked(tag, b)
			}
			b.live.Add(-1)
			s.mu.Unlock()
			s.emit(eventFor(EventRelease, b))
		})
	}
}

// Refresh forces recomputation of a in s. Derived atoms re-run their
// rule and notify subscribers if the value changed; async atoms cancel
// any in-flight run, transition to Waiting, and start a new
// generation. Writable atoms have nothing to recompute.
func Refresh(s *Store, a AnyAtom) {
	s.refreshErased(a.base())
}

func (s *Store) refreshErased(b *atomBase) {
	switch b.kind {
	case KindValue:
		return
	case KindDerived:
		s.mu.Lock()
		e := s.ensure(b)
		e.valid = false
		s.invalidateDependentsLocked(e)
		s.enqueueLocked(e)
		start := s.shouldDrainLocked()
		s.mu.Unlock()
		s.emit(eventFor(EventRefresh, b))
		if start {
			s.drain()
		}
	case KindAsync:
		s.emit(eventFor(EventRefresh, b))
		s.refreshAsync(b)
	}
}

// Invalidate refreshes every atom registered under any of the given
// tags in s. The coupling between writer and reader call sites is the
// tag spelling alone; no direct atom reference is needed.
func Invalidate(s *Store, tags ...string) {
	s.mu.Lock()
	set := make(map[*atomBase]struct{})
	for _, tag := range tags {
		for b := range s.tags[tag] {
			set[b] = struct{}{}
		}
	}
	atoms := make([]*atomBase, 0, len(set))
	for b := range set {
		atoms = append(atoms, b)
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventInvalidate, Tags: tags})
	for _, b := range atoms {
		s.refreshErased(b)
	}
}
