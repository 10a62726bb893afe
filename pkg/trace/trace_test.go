package trace

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/statekit-dev/statekit/pkg/atom"
)

func waitFor(t *testing.T, what string, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHookWrapsEveryRun(t *testing.T) {
	// With the default noop provider the hook must still thread the
	// context through and invoke done exactly once per run.
	var mu sync.Mutex
	var extracted []atom.RunInfo
	hook := Hook(WithAttributeExtractor(func(run atom.RunInfo) []attribute.KeyValue {
		mu.Lock()
		extracted = append(extracted, run)
		mu.Unlock()
		return []attribute.KeyValue{attribute.String("test.case", t.Name())}
	}))

	s := atom.New(atom.WithName("traced"), atom.WithAsyncHook(hook))
	a := atom.Async(func(ctx context.Context, g atom.Getter, p atom.Putter) (int, error) {
		if ctx == nil {
			return 0, errors.New("nil context")
		}
		return 42, nil
	}, atom.AsyncKey[int]("answer"))

	release := atom.Mount(s, a)
	defer release()

	waitFor(t, "traced run", func() bool { return atom.Get(s, a).IsSuccess() })

	mu.Lock()
	defer mu.Unlock()
	if len(extracted) != 1 {
		t.Fatalf("expected 1 extracted run, got %d", len(extracted))
	}
	run := extracted[0]
	if run.Store != "traced" || run.AtomKey != "answer" || run.Generation != 1 {
		t.Errorf("unexpected run info: %+v", run)
	}
}

func TestHookSurvivesFailingRuns(t *testing.T) {
	s := atom.New(atom.WithAsyncHook(Hook()))
	broken := atom.Async(func(ctx context.Context, g atom.Getter, p atom.Putter) (int, error) {
		return 0, errors.New("offline")
	})

	release := atom.Mount(s, broken)
	defer release()

	waitFor(t, "failure", func() bool { return atom.Get(s, broken).IsFailure() })
}

func TestHookSeesSupersededRuns(t *testing.T) {
	var mu sync.Mutex
	var generations []uint64
	hook := Hook(WithAttributeExtractor(func(run atom.RunInfo) []attribute.KeyValue {
		mu.Lock()
		generations = append(generations, run.Generation)
		mu.Unlock()
		return nil
	}))

	s := atom.New(atom.WithAsyncHook(hook))
	gate := make(chan struct{})
	a := atom.Async(func(ctx context.Context, g atom.Getter, p atom.Putter) (int, error) {
		select {
		case <-gate:
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	release := atom.Mount(s, a)
	defer release()
	atom.Refresh(s, a)
	close(gate)

	waitFor(t, "both generations hooked", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(generations) == 2
	})
}
