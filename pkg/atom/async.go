package atom

import (
	"context"
	"fmt"
	"time"
)

// RunInfo describes one asynchronous atom run for hooks.
type RunInfo struct {
	Store      string
	AtomID     uint64
	AtomKey    string
	Generation uint64
}

// AsyncHook is invoked when an async run starts. It may derive a new
// context (for example to carry a trace span) and returns a done
// callback invoked exactly once when the run completes, fails, or is
// discarded as superseded (done receives ErrSuperseded in that case).
type AsyncHook func(ctx context.Context, run RunInfo) (context.Context, func(err error))

// refreshAsync starts a new generation for b: the previous in-flight
// run (if any) is cancelled, the cached Result transitions to Waiting
// carrying the last Success value, and the run executes on its own
// goroutine.
func (s *Store) refreshAsync(b *atomBase) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e := s.ensure(b)
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.value = b.wrapWaiting(e.value)
	e.lastActive = time.Now()
	b.touch()
	s.invalidateDependentsLocked(e)
	s.enqueueLocked(e)
	start := s.shouldDrainLocked()
	hook := s.asyncHook
	s.mu.Unlock()

	ev := eventFor(EventAsyncStart, b)
	ev.Generation = gen
	s.emit(ev)

	if start {
		s.drain()
	}

	done := func(error) {}
	if hook != nil {
		ctx, done = hook(ctx, RunInfo{
			Store:      s.name,
			AtomID:     b.id,
			AtomKey:    b.key,
			Generation: gen,
		})
	}

	go s.runAsync(ctx, e, gen, done)
}

// runAsync executes one generation of an async atom and applies the
// outcome, unless a newer generation superseded it in the meantime.
func (s *Store) runAsync(ctx context.Context, e *entry, gen uint64, done func(error)) {
	b := e.atom

	v, err := func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("statekit: async atom %s panicked: %v", b.name(), r)
			}
		}()
		return b.run(ctx, newTracker(s), runPutter{s})
	}()

	s.mu.Lock()
	if e.gen != gen {
		// A newer run started while this one was in flight. Its
		// completion wins; this one is discarded (last-write-wins).
		s.mu.Unlock()
		ev := eventFor(EventStaleDiscard, b)
		ev.Generation = gen
		s.emit(ev)
		done(ErrSuperseded)
		return
	}
	e.cancel = nil
	if err != nil {
		e.value = b.wrapFailure(err)
	} else {
		e.value = b.wrapSuccess(v)
	}
	e.lastActive = time.Now()
	b.touch()
	s.invalidateDependentsLocked(e)
	s.enqueueLocked(e)
	start := s.shouldDrainLocked()
	s.mu.Unlock()

	var ev Event
	if err != nil {
		ev = eventFor(EventAsyncFailure, b)
		ev.Err = err
	} else {
		ev = eventFor(EventAsyncSuccess, b)
	}
	ev.Generation = gen
	s.emit(ev)

	if start {
		s.drain()
	}
	done(err)
}
