package agent

import (
	"log/slog"
	"time"
)

// Class selects the pool an action runs on.
type Class int

const (
	// ClassCPU actions run on the fixed worker pool.
	ClassCPU Class = iota
	// ClassIO actions may block and run on their own goroutines.
	ClassIO
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassCPU:
		return "cpu"
	case ClassIO:
		return "io"
	default:
		return "unknown"
	}
}

// Mode decides what an action failure does to the agent.
type Mode int

const (
	// ModeFail stops the agent on the first failure until Restart.
	ModeFail Mode = iota
	// ModeContinue discards the failed result and keeps draining.
	ModeContinue
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFail:
		return "fail"
	case ModeContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// Observer receives dispatcher events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Processed reports one action run; err is nil on success.
	Processed(class Class, elapsed time.Duration, err error)
	// Failed reports an agent entering the failed state.
	Failed(agent string)
	// Restarted reports a successful Restart.
	Restarted(agent string)
}

type nopObserver struct{}

func (nopObserver) Processed(Class, time.Duration, error) {}
func (nopObserver) Failed(string)                         {}
func (nopObserver) Restarted(string)                      {}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCPUWorkers sets the CPU pool size. Values below 1 keep the default.
func WithCPUWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.cpuWorkers = n
		}
	}
}

// WithIOLimit caps concurrently running I/O actions. Zero means no cap.
func WithIOLimit(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.ioLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver sets the dispatcher observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// Validator checks an action result. A non-nil error rejects it.
type Validator[T any] func(T) error

// Watch is called after an action changes the value.
type Watch[T any] func(old, new T)

// ErrorHandler is called with the agent and the failure of an action.
type ErrorHandler[T any] func(a *Agent[T], err error)

// Option configures an Agent.
type Option[T any] func(*Agent[T])

// WithMode sets the error mode. Without it, agents with an error handler
// default to ModeContinue and all others to ModeFail.
func WithMode[T any](m Mode) Option[T] {
	return func(a *Agent[T]) {
		a.mode = m
		a.modeSet = true
	}
}

// WithErrorHandler sets the handler called on every action failure.
func WithErrorHandler[T any](h ErrorHandler[T]) Option[T] {
	return func(a *Agent[T]) {
		a.handler = h
	}
}

// WithValidator sets the validator run against every action result and
// restart value.
func WithValidator[T any](v Validator[T]) Option[T] {
	return func(a *Agent[T]) {
		a.validator = v
	}
}

// WithWatch appends a watch. Watches run in registration order on the
// goroutine that applied the action.
func WithWatch[T any](w Watch[T]) Option[T] {
	return func(a *Agent[T]) {
		if w != nil {
			a.watches = append(a.watches, w)
		}
	}
}

// WithName names the agent in logs and metrics.
func WithName[T any](name string) Option[T] {
	return func(a *Agent[T]) {
		a.name = name
	}
}

// RestartOption configures Restart.
type RestartOption func(*restartOptions)

type restartOptions struct {
	clearActions bool
}

// ClearActions drops the queued actions on restart.
func ClearActions() RestartOption {
	return func(o *restartOptions) {
		o.clearActions = true
	}
}
