package atom

import "time"

// EventType identifies a store event for observers.
type EventType uint8

const (
	EventSet          EventType = iota + 1 // writable atom updated
	EventRefresh                           // explicit recomputation requested
	EventSubscribe                         // subscription established
	EventRelease                           // subscription released
	EventAsyncStart                        // async run started (Waiting)
	EventAsyncSuccess                      // async run completed with a value
	EventAsyncFailure                      // async run completed with an error
	EventStaleDiscard                      // superseded run's completion discarded
	EventInvalidate                        // tag invalidation fan-out
	EventEvict                             // idle entry evicted from the cache
)

// String returns the event type's wire name.
func (t EventType) String() string {
	switch t {
	case EventSet:
		return "set"
	case EventRefresh:
		return "refresh"
	case EventSubscribe:
		return "subscribe"
	case EventRelease:
		return "release"
	case EventAsyncStart:
		return "async_start"
	case EventAsyncSuccess:
		return "async_success"
	case EventAsyncFailure:
		return "async_failure"
	case EventStaleDiscard:
		return "stale_discard"
	case EventInvalidate:
		return "invalidate"
	case EventEvict:
		return "evict"
	default:
		return "unknown"
	}
}

// Event describes a single store occurrence. Metrics, tracing, and the
// devtools inspector all consume the same stream.
type Event struct {
	Type       EventType
	Store      string
	AtomID     uint64
	AtomKey    string
	Kind       Kind
	Generation uint64
	Tags       []string
	Err        error
	Time       time.Time
}

// Observer receives store events. Observers are called synchronously
// after the triggering operation and must not block.
type Observer func(Event)

// Observe registers an observer and returns a function that removes it.
func (s *Store) Observe(fn Observer) (remove func()) {
	s.mu.Lock()
	s.obsSeq++
	id := s.obsSeq
	if s.observers == nil {
		s.observers = make(map[uint64]Observer)
	}
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// emit delivers ev to all observers outside the store lock.
func (s *Store) emit(ev Event) {
	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	s.mu.Unlock()

	ev.Store = s.name
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, fn := range obs {
		fn(ev)
	}
}

// eventFor pre-fills the atom fields of an event.
func eventFor(t EventType, b *atomBase) Event {
	return Event{
		Type:    t,
		AtomID:  b.id,
		AtomKey: b.key,
		Kind:    b.kind,
	}
}
