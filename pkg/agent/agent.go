package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/stmkit/internal/versioned"
)

// Action computes an agent's next value from its current one.
// A returned error or a panic counts as a failure of the action.
type Action[T any] func(T) (T, error)

type envelope[T any] struct {
	action Action[T]
	class  Class
}

// Agent owns a value that changes only by applying actions, one at a time
// and in the order they were sent.
type Agent[T any] struct {
	d         *Dispatcher
	name      string
	mode      Mode
	modeSet   bool
	handler   ErrorHandler[T]
	validator Validator[T]
	watches   []Watch[T]
	logger    *slog.Logger

	state *versioned.Cell[T]

	mu       sync.Mutex
	mailbox  fifo[envelope[T]]
	running  bool // an action is queued on a pool or executing
	err      error
	sent     uint64
	finished uint64
	progress chan struct{} // closed and replaced when finished or err changes
}

// New creates an agent holding initial whose actions run on d.
// Returns ErrInvalidState if the validator rejects initial.
func New[T any](d *Dispatcher, initial T, opts ...Option[T]) (*Agent[T], error) {
	if d == nil {
		return nil, ErrMissingArgument.WithDetails("dispatcher is nil")
	}
	a := &Agent[T]{
		d:        d,
		progress: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if !a.modeSet && a.handler != nil {
		a.mode = ModeContinue
	}
	if a.name == "" {
		a.name = "agent-" + ulid.Make().String()
	}
	a.logger = d.logger.With(slog.String("agent", a.name))

	if err := a.check(initial); err != nil {
		return nil, err
	}
	a.state = versioned.New(initial)
	return a, nil
}

// Name returns the agent name.
func (a *Agent[T]) Name() string {
	return a.name
}

// Mode returns the error mode.
func (a *Agent[T]) Mode() Mode {
	return a.mode
}

// Deref returns the value after the last successfully applied action.
// It never blocks.
func (a *Agent[T]) Deref() T {
	return a.state.Load().Value
}

// Version returns the number of values installed so far.
func (a *Agent[T]) Version() uint64 {
	return a.state.Version()
}

// Error returns the failure that stopped the agent, or nil.
func (a *Agent[T]) Error() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Pending returns the number of sent actions not yet finished.
func (a *Agent[T]) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int(a.sent - a.finished)
}

// Send queues a CPU-class action and returns immediately.
func (a *Agent[T]) Send(action Action[T]) error {
	return a.SendClass(action, ClassCPU)
}

// SendIO queues an I/O-class action and returns immediately.
func (a *Agent[T]) SendIO(action Action[T]) error {
	return a.SendClass(action, ClassIO)
}

// SendClass queues action to run on the pool for class.
// A failed agent rejects it with ErrAgentFailed, a shut down dispatcher
// with ErrDispatcherClosed.
func (a *Agent[T]) SendClass(action Action[T], class Class) error {
	if action == nil {
		return ErrMissingArgument.WithDetails("action is nil")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return ErrAgentFailed.WithDetails("agent " + a.name).WithCause(a.err)
	}
	schedule := !a.running
	if err := a.d.admit(schedule); err != nil {
		return err
	}

	a.sent++
	a.mailbox.push(envelope[T]{action: action, class: class})
	if schedule {
		a.running = true
		a.d.submit(class, a.step)
	}
	return nil
}

// step applies the head of the mailbox and hands the next head to its
// pool. At most one step per agent is queued or running.
func (a *Agent[T]) step() {
	a.mu.Lock()
	env, _ := a.mailbox.pop()
	a.mu.Unlock()

	start := time.Now()
	old := a.state.Load()
	next, err := a.apply(env.action, old.Value)
	if err == nil {
		if _, ok := a.state.CompareAndSwap(old, next); !ok {
			panic("agent: value of " + a.name + " changed by another writer")
		}
		for _, w := range a.watches {
			w(old.Value, next)
		}
	}
	a.d.observer.Processed(env.class, time.Since(start), err)

	if err != nil {
		a.logger.Warn("action failed",
			slog.String("class", env.class.String()),
			slog.String("mode", a.mode.String()),
			slog.String("error", err.Error()),
		)
	}

	failed := err != nil && a.mode == ModeFail
	if err != nil && !failed && a.handler != nil {
		a.handler(a, err)
	}

	a.mu.Lock()
	a.finished++
	if failed {
		a.err = err
	}
	head, more := a.mailbox.peek()
	if failed || !more {
		a.running = false
	}
	a.broadcast()
	a.mu.Unlock()

	if failed {
		a.d.observer.Failed(a.name)
		// Called after the failure is recorded so the handler may Restart.
		if a.handler != nil {
			a.handler(a, err)
		}
	}

	switch {
	case failed || !more:
		a.d.release()
	default:
		a.d.submit(head.class, a.step)
	}
}

func (a *Agent[T]) apply(action Action[T], v T) (next T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			next, err = zero, fmt.Errorf("agent %s: action panicked: %v", a.name, r)
		}
	}()

	next, err = action(v)
	if err != nil {
		return next, err
	}
	if err := a.check(next); err != nil {
		return next, err
	}
	return next, nil
}

func (a *Agent[T]) check(v T) error {
	if a.validator == nil {
		return nil
	}
	if err := a.validator(v); err != nil {
		return ErrInvalidState.WithDetails("agent " + a.name).WithCause(err)
	}
	return nil
}

// broadcast wakes awaiters. Caller holds a.mu.
func (a *Agent[T]) broadcast() {
	close(a.progress)
	a.progress = make(chan struct{})
}

// Await blocks until every action sent before the call has finished,
// including an action that failed the agent; check Error afterwards.
// It returns ErrAgentFailed if the agent fails with some of those actions
// still queued, and ErrTimeout if ctx ends first.
func (a *Agent[T]) Await(ctx context.Context) error {
	a.mu.Lock()
	target := a.sent
	a.mu.Unlock()

	for {
		a.mu.Lock()
		finished, failure, wake := a.finished, a.err, a.progress
		a.mu.Unlock()

		if finished >= target {
			return nil
		}
		if failure != nil {
			return ErrAgentFailed.WithDetailsf("agent %s: %d actions pending", a.name, target-finished).WithCause(failure)
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return ErrTimeout.WithDetailsf("agent %s: %d actions pending", a.name, target-finished).WithCause(ctx.Err())
		}
	}
}

// AwaitFor is Await with a timeout.
func (a *Agent[T]) AwaitFor(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Await(ctx)
}

// Restart clears the failure of a failed agent, sets its value to v and
// resumes draining the queued actions, or drops them with ClearActions.
// It returns ErrAgentNotFailed if the agent has not failed, and
// ErrInvalidState if the validator rejects v.
func (a *Agent[T]) Restart(v T, opts ...RestartOption) error {
	var ro restartOptions
	for _, opt := range opts {
		opt(&ro)
	}

	// The validator runs unlocked; it may call back into the agent.
	if err := a.check(v); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err == nil {
		return ErrAgentNotFailed.WithDetails("agent " + a.name)
	}

	schedule := !ro.clearActions && a.mailbox.len() > 0
	if err := a.d.admit(schedule); err != nil {
		return err
	}

	cur := a.state.Load()
	a.state.CompareAndSwap(cur, v)
	a.err = nil
	if ro.clearActions {
		a.finished += uint64(a.mailbox.clear())
	}
	a.broadcast()

	a.logger.Info("agent restarted",
		slog.Bool("cleared", ro.clearActions),
		slog.Int("queued", a.mailbox.len()),
	)
	a.d.observer.Restarted(a.name)

	if schedule {
		head, _ := a.mailbox.peek()
		a.running = true
		a.d.submit(head.class, a.step)
	}
	return nil
}
