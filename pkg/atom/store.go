package atom

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Store owns the live cache of atom values, the subscriber lists, the
// notification scheduler, the tag index, and idle-eviction timing.
//
// A store is an explicit, passable handle. Default() returns the
// process-wide shared store; New builds isolated scoped stores. The
// same atom may be live in several stores at once, each with an
// independent cached value.
type Store struct {
	name    string
	logger  *slog.Logger
	idleTTL time.Duration

	mu      sync.Mutex
	entries map[*atomBase]*entry
	tags    map[string]map[*atomBase]int

	observers map[uint64]Observer
	obsSeq    uint64
	subSeq    uint64

	// Pending change notifications. Entries are deduplicated so a
	// subscriber sees at most one notification per turn even when
	// several of its dependencies changed.
	pending    []*entry
	pendingSet map[*entry]struct{}
	batchDepth int
	draining   bool

	asyncHook AsyncHook

	stopJanitor chan struct{}
	closed      bool
}

// entry is a store's cache slot for one atom.
type entry struct {
	atom *atomBase

	value any
	valid bool // derived: cached value is current

	// Dependency edges, rebuilt on every derived recomputation.
	deps       map[*entry]struct{}
	dependents map[*entry]struct{}

	subs map[uint64]*subscriber

	// Async run bookkeeping. gen increases monotonically; completions
	// that do not match the current generation are discarded.
	gen    uint64
	cancel context.CancelFunc

	lastActive time.Time
}

type subscriber struct {
	id   uint64
	fn   func(any) // nil for Mount-style keep-warm subscriptions
	tags []string
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithName sets the store name used in logs, events, and traces.
func WithName(name string) StoreOption {
	return func(s *Store) { s.name = name }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithIdleTTL enables eviction of cache entries that have had no
// subscribers, no dependents, and no activity for at least ttl.
// Eviction timing is a soft heuristic, not a hard guarantee.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.idleTTL = ttl }
}

// WithAsyncHook installs a hook invoked around every async atom run.
// See AsyncHook.
func WithAsyncHook(hook AsyncHook) StoreOption {
	return func(s *Store) { s.asyncHook = hook }
}

// New creates a scoped store.
func New(opts ...StoreOption) *Store {
	s := &Store{
		entries:    make(map[*atomBase]*entry),
		tags:       make(map[string]map[*atomBase]int),
		pendingSet: make(map[*entry]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.name == "" {
		s.name = fmt.Sprintf("store#%d", nextID())
	}
	if s.idleTTL > 0 {
		s.stopJanitor = make(chan struct{})
		go s.janitor()
	}
	return s
}

// defaultStore is the process-wide shared store. It is an ordinary
// Store held in a package variable, not special-cased anywhere.
var defaultStore = New(WithName("default"))

// Default returns the process-wide shared store.
func Default() *Store {
	return defaultStore
}

// Name returns the store's name.
func (s *Store) Name() string { return s.name }

// Len returns the number of cached atom entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the janitor and cancels all in-flight async runs.
// Atoms and their cached values in other stores are unaffected.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stopJanitor
	s.stopJanitor = nil
	var cancels []context.CancelFunc
	for _, e := range s.entries {
		if e.cancel != nil {
			cancels = append(cancels, e.cancel)
			e.cancel = nil
		}
	}
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	for _, cancel := range cancels {
		cancel()
	}
}

// ensure returns the cache entry for b, creating it on first use.
// The caller must hold s.mu.
func (s *Store) ensure(b *atomBase) *entry {
	if e, ok := s.entries[b]; ok {
		return e
	}
	e := &entry{
		atom:       b,
		deps:       make(map[*entry]struct{}),
		dependents: make(map[*entry]struct{}),
		subs:       make(map[uint64]*subscriber),
		lastActive: time.Now(),
	}
	switch b.kind {
	case KindValue, KindAsync:
		e.value = b.initial
	}
	s.entries[b] = e
	return e
}

// read returns the current type-erased value for b, computing derived
// atoms on demand. Async atoms never compute here: read returns the
// cached Result without blocking.
func (s *Store) read(b *atomBase) any {
	s.mu.Lock()
	e := s.ensure(b)
	e.lastActive = time.Now()
	b.touch()
	if b.kind != KindDerived || e.valid {
		v := e.value
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	// Lazy derived recomputation. A panicking computation propagates
	// to this caller; that is the read-time rethrow contract for
	// synchronous derived atoms.
	v, _ := s.recompute(e, newTracker(s))
	return v
}

// write updates a writable atom's cached value, invalidates dependents,
// and schedules notification. Calling it for a non-writable atom is a
// lifecycle bug and panics.
func (s *Store) write(b *atomBase, v any) {
	if b.kind != KindValue {
		panic(fmt.Sprintf("statekit: set on non-writable atom %s", b.name()))
	}

	s.mu.Lock()
	e := s.ensure(b)
	if e.sameValue(v) {
		s.mu.Unlock()
		return
	}
	e.value = v
	e.lastActive = time.Now()
	b.touch()
	s.invalidateDependentsLocked(e)
	s.enqueueLocked(e)
	start := s.shouldDrainLocked()
	s.mu.Unlock()

	s.emit(eventFor(EventSet, b))
	if start {
		s.drain()
	}
}

// sameValue reports whether the new value equals the cached one,
// gating notification the same way equality-checked signals do.
func (e *entry) sameValue(v any) bool {
	return reflect.DeepEqual(e.value, v)
}

// invalidateDependentsLocked marks every transitive dependent of e
// stale and queues it for recomputation and notification.
// The caller must hold s.mu.
func (s *Store) invalidateDependentsLocked(e *entry) {
	for d := range e.dependents {
		if !d.valid {
			continue
		}
		d.valid = false
		s.enqueueLocked(d)
		s.invalidateDependentsLocked(d)
	}
}

// enqueueLocked adds e to the pending notification set, deduplicated.
// The caller must hold s.mu.
func (s *Store) enqueueLocked(e *entry) {
	if _, in := s.pendingSet[e]; in {
		return
	}
	s.pendingSet[e] = struct{}{}
	s.pending = append(s.pending, e)
}

// shouldDrainLocked claims the drain role when notifications are
// pending, no batch is open, and nobody else is draining.
// The caller must hold s.mu.
func (s *Store) shouldDrainLocked() bool {
	if s.batchDepth > 0 || s.draining || len(s.pending) == 0 {
		return false
	}
	s.draining = true
	return true
}

// drain delivers pending notifications until the queue is empty.
// Handlers run outside the store lock and may themselves call Set or
// Refresh; such re-entrant changes are appended to the queue and
// processed by this same loop.
func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		s.pendingSet = make(map[*entry]struct{})
		s.mu.Unlock()

		for _, e := range batch {
			s.deliver(e)
		}
	}
}

// deliver recomputes a stale derived entry and notifies the entry's
// subscribers with the current value.
func (s *Store) deliver(e *entry) {
	s.mu.Lock()
	needsCompute := e.atom.kind == KindDerived && !e.valid
	hasAudience := len(e.subs) > 0 || len(e.dependents) > 0
	s.mu.Unlock()

	if needsCompute {
		if !hasAudience {
			// Nobody is watching; stay lazy until the next read.
			return
		}
		changed, ok := s.recomputeQuietly(e)
		if !ok || !changed {
			return
		}
	}

	s.mu.Lock()
	subs := make([]*subscriber, 0, len(e.subs))
	for _, sub := range e.subs {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	v := e.value
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.fn != nil {
			sub.fn(v)
		}
	}
}

// warmDerived computes a derived entry if it is stale, wiring its
// dependency edges without delivering any notification.
func (s *Store) warmDerived(e *entry) {
	s.mu.Lock()
	stale := !e.valid
	s.mu.Unlock()
	if stale {
		s.recomputeQuietly(e)
	}
}

// recomputeQuietly recomputes a derived entry during notification
// delivery. A panicking computation is captured and logged here instead
// of unwinding the drain loop; it will surface to the next reader.
func (s *Store) recomputeQuietly(e *entry) (changed, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("derived atom computation failed",
				"store", s.name,
				"atom", e.atom.name(),
				"panic", r)
			changed, ok = false, false
		}
	}()
	_, changed = s.recompute(e, newTracker(s))
	return changed, true
}

// Batch groups multiple mutations into one notification turn. All
// changes inside fn are collected and deduplicated; each affected
// subscriber is notified at most once when the outermost batch ends.
func (s *Store) Batch(fn func()) {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchDepth--
		start := s.batchDepth == 0 && s.shouldDrainLocked()
		s.mu.Unlock()
		if start {
			s.drain()
		}
	}()

	fn()
}

// AtomInfo is a point-in-time view of one cache entry, as exposed by
// Snapshot and the devtools inspector.
type AtomInfo struct {
	ID          uint64   `json:"id"`
	Key         string   `json:"key,omitempty"`
	Kind        string   `json:"kind"`
	Value       string   `json:"value"`
	Subscribers int      `json:"subscribers"`
	Generation  uint64   `json:"generation,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Snapshot returns a stable-ordered view of every cached entry.
func (s *Store) Snapshot() []AtomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]AtomInfo, 0, len(s.entries))
	for b, e := range s.entries {
		info := AtomInfo{
			ID:          b.id,
			Key:         b.key,
			Kind:        b.kind.String(),
			Value:       fmt.Sprintf("%v", e.value),
			Subscribers: len(e.subs),
			Generation:  e.gen,
		}
		for tag, atoms := range s.tags {
			if _, in := atoms[b]; in {
				info.Tags = append(info.Tags, tag)
			}
		}
		sort.Strings(info.Tags)
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
