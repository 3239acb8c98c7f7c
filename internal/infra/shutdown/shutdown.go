package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupted is the status used when a second signal forces exit.
const ExitInterrupted = 130

// Signals cancel the running command.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs cleanup hooks once, newest first, under a shared deadline.
type Handler struct {
	timeout time.Duration

	mu    sync.Mutex
	hooks []hook

	once sync.Once
	err  error
	done chan struct{}

	notify func(chan<- os.Signal, ...os.Signal)
	stop   func(chan<- os.Signal)
	exit   func(int)
}

// NewHandler returns a handler whose hooks share timeout.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
		notify:  signal.Notify,
		stop:    signal.Stop,
		exit:    os.Exit,
	}
}

// OnShutdown registers a hook. A failure is reported as "name: err".
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// NotifyContext returns a context canceled by the first signal. A second
// signal runs the hooks and exits with ExitInterrupted, for a command
// that ignores cancellation.
func (h *Handler) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 2)
	h.notify(sigs, Signals...)

	quit := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-quit:
			return
		}
		select {
		case <-sigs:
			_ = h.Shutdown()
			h.exit(ExitInterrupted)
		case <-quit:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			h.stop(sigs)
			close(quit)
		})
		cancel()
	}
}

// Shutdown runs the hooks once and returns their joined errors. Later
// calls return the same result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]hook(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i].fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			}
		}
		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Done is closed once the hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
