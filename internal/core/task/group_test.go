package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
)

func TestGroup_DeliversCompletion(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	want := errors.New("boom")
	got := make(chan error, 1)
	h := g.Go("login", func(ctx context.Context) error { return want }, func(err error) { got <- err })

	if err := h.Wait(); !errors.Is(err, want) {
		t.Fatalf("Wait() = %v, want %v", err, want)
	}
	if err := <-got; !errors.Is(err, want) {
		t.Errorf("onDone received %v", err)
	}
	if h.ID == "" || h.Key != "login" {
		t.Errorf("handle = %+v", h)
	}
	if g.Running() != 0 {
		t.Errorf("Running() = %d after completion", g.Running())
	}
}

func TestGroup_TaskIDInContext(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	var seen string
	h := g.Go("k", func(ctx context.Context) error {
		seen = logger.TaskIDFromContext(ctx)
		return nil
	}, nil)
	h.Wait()

	if seen != h.ID {
		t.Errorf("task id in context = %q, want %q", seen, h.ID)
	}
}

func TestGroup_SupersededCompletionDiscarded(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	var delivered atomic.Int32
	release := make(chan struct{})

	first := g.Go("posts", func(ctx context.Context) error {
		<-ctx.Done()
		<-release
		return nil
	}, func(error) { delivered.Add(1) })

	second := g.Go("posts", func(ctx context.Context) error { return nil }, func(error) { delivered.Add(10) })

	if err := second.Wait(); err != nil {
		t.Fatalf("second.Wait() = %v", err)
	}
	close(release)
	if err := first.Wait(); !errors.Is(err, ErrDiscarded) {
		t.Fatalf("first.Wait() = %v, want ErrDiscarded", err)
	}
	if got := delivered.Load(); got != 10 {
		t.Errorf("delivered = %d, want only the newer completion", got)
	}
}

func TestGroup_DifferentKeysRunConcurrently(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	block := make(chan struct{})
	a := g.Go("a", func(ctx context.Context) error { <-block; return nil }, nil)
	b := g.Go("b", func(ctx context.Context) error { <-block; return nil }, nil)

	if g.Running() != 2 {
		t.Errorf("Running() = %d, want 2", g.Running())
	}
	close(block)
	if a.Wait() != nil || b.Wait() != nil {
		t.Error("tasks under different keys must not supersede each other")
	}
}

func TestGroup_CloseDiscardsLateCompletions(t *testing.T) {
	g := NewGroup(context.Background())

	var delivered atomic.Bool
	started := make(chan struct{})
	h := g.Go("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, func(error) { delivered.Store(true) })

	<-started
	g.Close()

	if err := h.Wait(); !errors.Is(err, ErrDiscarded) {
		t.Errorf("Wait() = %v, want ErrDiscarded", err)
	}
	if delivered.Load() {
		t.Error("completion delivered after Close")
	}

	late := g.Go("after", func(ctx context.Context) error { return nil }, func(error) { delivered.Store(true) })
	if err := late.Wait(); !errors.Is(err, ErrClosed) {
		t.Errorf("Go after Close: Wait() = %v, want ErrClosed", err)
	}
	if delivered.Load() {
		t.Error("task ran after Close")
	}

	g.Close()
}

func TestGroup_Cancel(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	h := g.Go("k", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)

	if !g.Cancel("k") {
		t.Fatal("Cancel() = false for running key")
	}
	if err := h.Wait(); !errors.Is(err, ErrDiscarded) {
		t.Errorf("Wait() = %v", err)
	}
	if g.Cancel("k") {
		t.Error("Cancel() = true for finished key")
	}
}

func TestGroup_Run(t *testing.T) {
	g := NewGroup(context.Background())
	defer g.Close()

	if err := g.Run("k", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestGroup_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := NewGroup(parent)
	defer g.Close()

	h := g.Go("k", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not observe parent cancellation")
	}
	if !errors.Is(h.Wait(), ErrDiscarded) {
		t.Errorf("Wait() = %v", h.Wait())
	}
}

func TestGroup_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	g := NewGroup(context.Background(), WithMetrics(reg))

	g.Run("ok", func(ctx context.Context) error { return nil })
	h := g.Go("slow", func(ctx context.Context) error { <-ctx.Done(); return nil }, nil)
	g.Close()
	h.Wait()

	if got := testutil.ToFloat64(reg.TasksInFlight); got != 0 {
		t.Errorf("in flight = %v", got)
	}
	if got := testutil.ToFloat64(reg.TasksDiscarded); got != 1 {
		t.Errorf("discarded = %v", got)
	}
}
