// Package binding connects long-lived component instances to atoms.
//
// A component declares which atoms feed which of its fields, hands the
// descriptors to a Binder, and the binder drives the lifecycle: Attach
// establishes every subscription, each change writes the new value
// through the field pointer and asks the host to re-render, Detach
// releases everything exactly once. The component never touches
// subscription bookkeeping.
package binding

import (
	"fmt"
	"sync"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// Host is the component-side collaborator. The binder calls
// RequestRender after a bound field changed; the host decides when and
// how to actually render.
type Host interface {
	RequestRender()
}

// Descriptor declares one atom-to-field binding. Build them with Field.
type Descriptor struct {
	atom atom.AnyAtom
	bind func(b *Binder) func()
}

// FieldOption configures a Field descriptor.
type FieldOption func(*fieldConfig)

type fieldConfig struct {
	tags []string
}

// Tags registers the bound atom under the given reactivity tags for the
// lifetime of the binding.
func Tags(tags ...string) FieldOption {
	return func(c *fieldConfig) { c.tags = append(c.tags, tags...) }
}

// Field binds a's value to the field behind ptr. On attach the field is
// seeded with the current value; after every change the new value is
// written through ptr before the host's RequestRender is called.
//
// Handlers run on the goroutine delivering the change, which for async
// atoms is not the attaching goroutine. The host's render path is the
// synchronization point.
func Field[T any](ptr *T, a *atom.Atom[T], opts ...FieldOption) Descriptor {
	var cfg fieldConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return Descriptor{
		atom: a,
		bind: func(b *Binder) func() {
			subOpts := []atom.SubOption{atom.Immediate()}
			if len(cfg.tags) > 0 {
				subOpts = append(subOpts, atom.WithTags(cfg.tags...))
			}
			return atom.Subscribe(b.store, a, func(v T) {
				*ptr = v
				b.host.RequestRender()
			}, subOpts...)
		},
	}
}

// Binder owns every subscription a component instance holds against one
// store. It is created detached; Attach and Detach may alternate over
// the binder's lifetime.
type Binder struct {
	host   Host
	store  *atom.Store
	fields []Descriptor

	mu       sync.Mutex
	attached bool
	releases []func()
	bound    map[uint64]int // atom ID -> active subscription count
}

// New creates a detached binder for host over store with the given
// declarative bindings.
func New(host Host, store *atom.Store, descriptors ...Descriptor) *Binder {
	if host == nil {
		panic("statekit: binding.New requires a non-nil host")
	}
	return &Binder{
		host:   host,
		store:  store,
		fields: descriptors,
		bound:  make(map[uint64]int),
	}
}

// Store returns the store this binder subscribes against.
func (b *Binder) Store() *atom.Store { return b.store }

// Attached reports whether the binder currently holds subscriptions.
func (b *Binder) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

// Attach establishes every declared subscription. Fields are seeded with
// their atoms' current values; async atoms whose first subscription this
// is start their first run. Attaching an already attached binder is a
// lifecycle bug and panics.
func (b *Binder) Attach() {
	b.mu.Lock()
	if b.attached {
		b.mu.Unlock()
		panic("statekit: binder is already attached")
	}
	b.attached = true
	b.mu.Unlock()

	for _, d := range b.fields {
		release := d.bind(b)
		b.mu.Lock()
		b.releases = append(b.releases, release)
		b.bound[d.atom.ID()]++
		b.mu.Unlock()
	}
}

// Detach releases every subscription this binder holds, declarative and
// imperative alike, exactly once. In-flight async runs are unaffected;
// their completions simply no longer reach this instance. Detaching a
// detached binder is a no-op.
func (b *Binder) Detach() {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return
	}
	b.attached = false
	releases := b.releases
	b.releases = nil
	b.bound = make(map[uint64]int)
	b.mu.Unlock()

	for _, release := range releases {
		release()
	}
}

// track registers an imperative subscription so Detach tears it down.
func (b *Binder) track(id uint64, release func()) func() {
	b.mu.Lock()
	b.bound[id]++
	var once sync.Once
	wrapped := func() {
		once.Do(func() {
			release()
			b.mu.Lock()
			if b.bound[id] > 0 {
				b.bound[id]--
			}
			b.mu.Unlock()
		})
	}
	b.releases = append(b.releases, wrapped)
	b.mu.Unlock()
	return wrapped
}

// mustAttached panics when the binder holds no subscriptions.
func (b *Binder) mustAttached(op string) {
	b.mu.Lock()
	attached := b.attached
	b.mu.Unlock()
	if !attached {
		panic(fmt.Errorf("statekit: %s on detached binder: %w", op, ErrDetached))
	}
}

// mustBound panics when a has no active subscription through this binder.
func (b *Binder) mustBound(op string, a atom.AnyAtom) {
	b.mu.Lock()
	n := b.bound[a.ID()]
	attached := b.attached
	b.mu.Unlock()
	if !attached {
		panic(fmt.Errorf("statekit: %s on detached binder: %w", op, ErrDetached))
	}
	if n == 0 {
		panic(fmt.Errorf("statekit: %s on atom #%d: %w", op, a.ID(), ErrNotBound))
	}
}
