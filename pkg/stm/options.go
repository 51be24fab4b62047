package stm

import (
	"log/slog"
	"time"
)

// Default retry settings.
const (
	DefaultBackoffBase = 50 * time.Microsecond
	DefaultBackoffMax  = 5 * time.Millisecond
)

// Observer receives transaction outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Committed reports a commit after the given number of attempts.
	Committed(attempts int, elapsed time.Duration)
	// Retried reports a conflict on the given attempt.
	Retried(attempt int)
	// Aborted reports a transaction that ended without committing.
	// reason is one of "invalid_state", "error", "exhausted", "canceled".
	Aborted(reason string)
}

type nopObserver struct{}

func (nopObserver) Committed(int, time.Duration) {}
func (nopObserver) Retried(int)                  {}
func (nopObserver) Aborted(string)               {}

type settings struct {
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	logger      *slog.Logger
	observer    Observer
}

func defaultSettings() settings {
	return settings{
		backoffBase: DefaultBackoffBase,
		backoffMax:  DefaultBackoffMax,
		logger:      slog.Default().With(slog.String("component", "stm")),
		observer:    nopObserver{},
	}
}

// Option configures a Runtime or a single transaction.
type Option func(*settings)

// WithMaxAttempts bounds the number of attempts. Zero or less means retry
// until commit.
func WithMaxAttempts(n int) Option {
	return func(s *settings) {
		s.maxAttempts = n
	}
}

// WithBackoff sets the jittered backoff between attempts. The delay
// doubles from base up to ceiling. A zero base disables sleeping.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(s *settings) {
		s.backoffBase = base
		s.backoffMax = ceiling
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the transaction observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// Validator checks a proposed ref value. A non-nil error rejects it.
type Validator[T any] func(T) error

// Watch is called after a commit that changed the ref.
type Watch[T any] func(old, new T)

// RefOption configures a Ref.
type RefOption[T any] func(*Ref[T])

// WithValidator sets the validator run against every committed value,
// including the initial one.
func WithValidator[T any](v Validator[T]) RefOption[T] {
	return func(r *Ref[T]) {
		r.validator = v
	}
}

// WithWatch appends a watch. Watches run in registration order, once per
// commit that changed the ref, after the commit locks are released. Watches
// of concurrent commits to the same ref may therefore run concurrently and
// out of version order; each call still carries the old and new value of
// its own commit.
func WithWatch[T any](w Watch[T]) RefOption[T] {
	return func(r *Ref[T]) {
		if w != nil {
			r.watches = append(r.watches, w)
		}
	}
}

// WithName names the ref in errors and logs.
func WithName[T any](name string) RefOption[T] {
	return func(r *Ref[T]) {
		r.name = name
	}
}
