package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/statekit-dev/statekit/pkg/atom"
)

type prefs struct {
	Theme    string `json:"theme"`
	FontSize int    `json:"font_size"`
}

func TestFileRoundtrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("backend: %v", err)
	}

	theme := atom.Value(prefs{Theme: "light", FontSize: 12}, atom.WithKey("prefs"))
	counter := atom.Value(0, atom.WithKey("counter"))

	sn := NewSnapshotter()
	Register(sn, theme)
	Register(sn, counter)

	src := atom.New(atom.WithName("source"))
	atom.Set(src, theme, prefs{Theme: "dark", FontSize: 14})
	atom.Set(src, counter, 7)

	ctx := context.Background()
	if err := sn.Save(ctx, src, backend, "session"); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := atom.New(atom.WithName("restore"))
	if err := sn.Load(ctx, dst, backend, "session"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := atom.Get(dst, theme); got.Theme != "dark" || got.FontSize != 14 {
		t.Errorf("unexpected restored prefs: %+v", got)
	}
	if got := atom.Get(dst, counter); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestLoadMissingDocument(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	sn := NewSnapshotter()

	err = sn.Load(context.Background(), atom.New(), backend, "never-saved")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadSkipsUnregisteredKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("backend: %v", err)
	}

	counter := atom.Value(0, atom.WithKey("counter"))
	extinct := atom.Value("", atom.WithKey("removed-feature"))

	saver := NewSnapshotter()
	Register(saver, counter)
	Register(saver, extinct)

	src := atom.New()
	atom.Set(src, counter, 3)
	atom.Set(src, extinct, "obsolete")
	ctx := context.Background()
	if err := saver.Save(ctx, src, backend, "old"); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A newer snapshotter no longer knows the removed key.
	loader := NewSnapshotter()
	Register(loader, counter)

	dst := atom.New()
	if err := loader.Load(ctx, dst, backend, "old"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := atom.Get(dst, counter); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestLoadNotifiesOnce(t *testing.T) {
	// Load applies all writes in one batch; a derived subscriber over
	// two restored atoms sees one coalesced notification.
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("backend: %v", err)
	}

	first := atom.Value("a", atom.WithKey("first"))
	second := atom.Value("b", atom.WithKey("second"))
	joined := atom.Derived(func(g atom.Getter) string {
		return atom.From(g, first) + atom.From(g, second)
	})

	sn := NewSnapshotter()
	Register(sn, first)
	Register(sn, second)

	src := atom.New()
	atom.Set(src, first, "x")
	atom.Set(src, second, "y")
	ctx := context.Background()
	if err := sn.Save(ctx, src, backend, "s"); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := atom.New()
	var notifications []string
	release := atom.Subscribe(dst, joined, func(v string) {
		notifications = append(notifications, v)
	})
	defer release()

	if err := sn.Load(ctx, dst, backend, "s"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(notifications) != 1 || notifications[0] != "xy" {
		t.Errorf("expected one coalesced notification [xy], got %v", notifications)
	}
}

func TestRegisterRejectsKeylessAtom(t *testing.T) {
	sn := NewSnapshotter()
	defer func() {
		if recover() == nil {
			t.Fatal("registering a keyless atom should panic")
		}
	}()
	Register(sn, atom.Value(1))
}

func TestRegisterRejectsDerivedAtom(t *testing.T) {
	sn := NewSnapshotter()
	base := atom.Value(1)
	d := atom.Derived(func(g atom.Getter) int { return atom.From(g, base) }, atom.WithKey("derived"))

	defer func() {
		if recover() == nil {
			t.Fatal("registering a derived atom should panic")
		}
	}()
	Register(sn, d)
}
