package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs shutdown hooks once a stop is requested.
type Handler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	hooks []hook

	ctx       context.Context
	cancel    context.CancelFunc
	trigger   chan struct{}
	triggered sync.Once
	done      chan struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a handler whose hooks share timeout.
func NewHandler(timeout time.Duration, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		timeout: timeout,
		logger:  slog.Default().With(slog.String("component", "shutdown")),
		ctx:     ctx,
		cancel:  cancel,
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnShutdown registers a hook. Hooks run in reverse order of
// registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Context is canceled as soon as shutdown begins, before any hook runs.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Trigger requests shutdown as if a signal had arrived.
func (h *Handler) Trigger() {
	h.triggered.Do(func() {
		close(h.trigger)
	})
}

// Done is closed after every hook has returned.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until a signal, Trigger or the end of parent, then runs the
// hooks and returns their joined errors.
func (h *Handler) Wait(parent context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-h.trigger:
		h.logger.Info("shutdown triggered")
	case <-parent.Done():
		h.logger.Info("shutdown on context end")
	}
	h.cancel()
	return h.run()
}

func (h *Handler) run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := append([]hook(nil), h.hooks...)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		start := time.Now()
		if err := hooks[i].fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed",
				slog.String("hook", hooks[i].name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			continue
		}
		h.logger.Debug("shutdown hook done",
			slog.String("hook", hooks[i].name),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	return errors.Join(errs...)
}
