// Package persist snapshots keyed writable atoms to durable storage.
//
// A Snapshotter holds a registry of atoms eligible for persistence;
// Save serializes their current values in one store to a named JSON
// document on a Backend, Load applies a document back. Only writable
// atoms with a stable key participate: keys are the document's
// vocabulary, and derived or async state is recomputed, not restored.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/statekit-dev/statekit/pkg/atom"
)

// ErrNotFound is returned by Backend.Load when no document exists under
// the given name.
var ErrNotFound = errors.New("snapshot not found")

// Backend stores named snapshot documents.
type Backend interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

// document is the on-disk snapshot format.
type document struct {
	SavedAt time.Time                  `json:"saved_at"`
	Atoms   map[string]json.RawMessage `json:"atoms"`
}

type registration struct {
	marshal func(s *atom.Store) ([]byte, error)
	apply   func(s *atom.Store, data []byte) error
}

// Snapshotter registers atoms for persistence and moves their values
// between stores and backends.
type Snapshotter struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*registration
}

// SnapshotterOption configures a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) SnapshotterOption {
	return func(sn *Snapshotter) { sn.logger = logger }
}

// NewSnapshotter creates an empty snapshotter.
func NewSnapshotter(opts ...SnapshotterOption) *Snapshotter {
	sn := &Snapshotter{
		entries: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(sn)
	}
	if sn.logger == nil {
		sn.logger = slog.Default()
	}
	return sn
}

// Register makes a eligible for Save and Load through sn. The atom must
// be writable and carry a stable key (atom.WithKey); registering
// anything else is a configuration bug and panics. Re-registering a key
// replaces the previous registration.
func Register[T any](sn *Snapshotter, a *atom.Atom[T]) {
	if a.Key() == "" {
		panic("statekit: persistence requires an atom key, use atom.WithKey")
	}
	if a.Kind() != atom.KindValue {
		panic(fmt.Sprintf("statekit: cannot persist %s atom %q, only writable atoms", a.Kind(), a.Key()))
	}

	sn.mu.Lock()
	defer sn.mu.Unlock()
	sn.entries[a.Key()] = &registration{
		marshal: func(s *atom.Store) ([]byte, error) {
			return json.Marshal(atom.Get(s, a))
		},
		apply: func(s *atom.Store, data []byte) error {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			atom.Set(s, a, v)
			return nil
		},
	}
}

// Keys returns the registered atom keys in no particular order.
func (sn *Snapshotter) Keys() []string {
	sn.mu.Lock()
	defer sn.mu.Unlock()
	keys := make([]string, 0, len(sn.entries))
	for k := range sn.entries {
		keys = append(keys, k)
	}
	return keys
}

// Save serializes every registered atom's current value in s and writes
// the document to b under name.
func (sn *Snapshotter) Save(ctx context.Context, s *atom.Store, b Backend, name string) error {
	sn.mu.Lock()
	entries := make(map[string]*registration, len(sn.entries))
	for k, r := range sn.entries {
		entries[k] = r
	}
	sn.mu.Unlock()

	doc := document{
		SavedAt: time.Now().UTC(),
		Atoms:   make(map[string]json.RawMessage, len(entries)),
	}
	for key, r := range entries {
		raw, err := r.marshal(s)
		if err != nil {
			return fmt.Errorf("marshal atom %q: %w", key, err)
		}
		doc.Atoms[key] = raw
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := b.Save(ctx, name, data); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}

	sn.logger.Info("snapshot saved",
		"name", name,
		"store", s.Name(),
		"atoms", len(doc.Atoms))
	return nil
}

// Load reads the document named name from b and applies it to s. All
// writes happen in one batch, so subscribers see a single coalesced
// notification turn. Document entries without a matching registration
// are skipped; registered atoms absent from the document keep their
// current value.
func (sn *Snapshotter) Load(ctx context.Context, s *atom.Store, b Backend, name string) error {
	data, err := b.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", name, err)
	}

	sn.mu.Lock()
	entries := make(map[string]*registration, len(sn.entries))
	for k, r := range sn.entries {
		entries[k] = r
	}
	sn.mu.Unlock()

	var applyErr error
	applied := 0
	s.Batch(func() {
		for key, raw := range doc.Atoms {
			r, ok := entries[key]
			if !ok {
				sn.logger.Warn("snapshot entry has no registered atom, skipping",
					"name", name,
					"key", key)
				continue
			}
			if err := r.apply(s, raw); err != nil {
				applyErr = fmt.Errorf("apply atom %q: %w", key, err)
				return
			}
			applied++
		}
	})
	if applyErr != nil {
		return applyErr
	}

	sn.logger.Info("snapshot loaded",
		"name", name,
		"store", s.Name(),
		"atoms", applied,
		"saved_at", doc.SavedAt)
	return nil
}
