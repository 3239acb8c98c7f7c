package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
	"github.com/yndnr/minisocial-go/pkg/cmap"
)

var (
	// ErrDiscarded is returned by Handle.Wait when the task was superseded
	// or the group was closed before its completion was delivered.
	ErrDiscarded = errors.New("task: completion discarded")

	// ErrClosed is returned for tasks started after Close.
	ErrClosed = errors.New("task: group closed")
)

// Func is the body of a task. It must return promptly once ctx is done.
type Func func(ctx context.Context) error

// Handle tracks one started task.
type Handle struct {
	ID  string
	Key string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the task has finished and its completion has been
// delivered or discarded.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes. It returns the task's error, or
// ErrDiscarded if the completion was dropped.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Cancel cancels the task's context. Its completion will be discarded.
func (h *Handle) Cancel() {
	h.cancel()
}

// Group runs keyed tasks.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc

	tasks *cmap.Map[*Handle]
	wg    sync.WaitGroup

	// mu orders task registration against Close.
	mu     sync.RWMutex
	closed atomic.Bool

	metrics *metric.Registry
	logger  logger.Logger
}

// Option configures a Group.
type Option func(*Group)

// WithMetrics records started and discarded tasks.
func WithMetrics(r *metric.Registry) Option {
	return func(g *Group) {
		g.metrics = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Group) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGroup creates a group whose tasks derive from parent.
func NewGroup(parent context.Context, opts ...Option) *Group {
	ctx, cancel := context.WithCancel(parent)
	g := &Group{
		ctx:    ctx,
		cancel: cancel,
		tasks:  cmap.New[*Handle](),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Go starts fn under key, superseding any task already running under the
// same key. onDone, if not nil, receives fn's result unless the completion
// is discarded. onDone runs on the task's goroutine and must not call Close.
func (g *Group) Go(key string, fn Func, onDone func(error)) *Handle {
	h := &Handle{
		ID:   ulid.Make().String(),
		Key:  key,
		done: make(chan struct{}),
	}

	g.mu.RLock()
	if g.closed.Load() {
		g.mu.RUnlock()
		h.cancel = func() {}
		h.err = ErrClosed
		close(h.done)
		return h
	}

	ctx, cancel := context.WithCancel(logger.WithTaskID(g.ctx, h.ID))
	h.cancel = cancel

	if prev, ok := g.tasks.Swap(key, h); ok {
		g.logger.Debug("task superseded", "key", key, "task_id", prev.ID, "by", h.ID)
		prev.cancel()
	}

	g.metrics.TaskStarted()
	g.wg.Add(1)
	g.mu.RUnlock()

	go g.run(ctx, h, fn, onDone)
	return h
}

// Run starts fn under key and waits for it.
func (g *Group) Run(key string, fn Func) error {
	return g.Go(key, fn, nil).Wait()
}

func (g *Group) run(ctx context.Context, h *Handle, fn Func, onDone func(error)) {
	defer g.wg.Done()
	defer close(h.done)

	err := fn(ctx)

	current := g.tasks.CompareAndDelete(h.Key, func(v *Handle) bool { return v == h })
	cancelled := ctx.Err() != nil
	h.cancel()

	if !current || cancelled || g.closed.Load() {
		g.metrics.TaskFinished(true)
		g.logger.Debug("task completion discarded", "key", h.Key, "task_id", h.ID, "error", err)
		h.err = ErrDiscarded
		return
	}

	g.metrics.TaskFinished(false)
	h.err = err
	if onDone != nil {
		onDone(err)
	}
}

// Cancel cancels the task running under key, if any.
func (g *Group) Cancel(key string) bool {
	h, ok := g.tasks.Get(key)
	if !ok {
		return false
	}
	h.cancel()
	return true
}

// Running reports how many tasks are in flight.
func (g *Group) Running() int {
	return g.tasks.Count()
}

// Close cancels every task and waits for them to return. No completion is
// delivered once Close has returned. Close is idempotent.
func (g *Group) Close() {
	g.mu.Lock()
	already := g.closed.Swap(true)
	g.mu.Unlock()
	if already {
		return
	}

	g.cancel()
	g.wg.Wait()
}
