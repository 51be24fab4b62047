package agent

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Dispatcher runs agent actions on two pools: a fixed set of CPU workers
// fed by an unbounded run queue, and a goroutine per I/O action,
// optionally capped by WithIOLimit.
type Dispatcher struct {
	cpuWorkers int
	ioLimit    int
	logger     *slog.Logger
	observer   Observer

	queue   *runQueue
	ioSem   *semaphore.Weighted
	workers sync.WaitGroup

	mu     sync.Mutex // guards closed and Add on active
	closed bool
	active sync.WaitGroup // agents with an action queued or running
	busy   atomic.Int64
}

// NewDispatcher creates a dispatcher and starts its CPU workers.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cpuWorkers: runtime.GOMAXPROCS(0) + 2,
		logger:     slog.Default().With(slog.String("component", "agent")),
		observer:   nopObserver{},
		queue:      newRunQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.ioLimit > 0 {
		d.ioSem = semaphore.NewWeighted(int64(d.ioLimit))
	}

	d.workers.Add(d.cpuWorkers)
	for i := 0; i < d.cpuWorkers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for {
		task, ok := d.queue.pop()
		if !ok {
			return
		}
		task()
	}
}

// admit checks that the dispatcher accepts work and, if schedule is set,
// marks one more agent active.
func (d *Dispatcher) admit(schedule bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	if schedule {
		d.active.Add(1)
		d.busy.Add(1)
	}
	return nil
}

// release marks an agent idle.
func (d *Dispatcher) release() {
	d.busy.Add(-1)
	d.active.Done()
}

// submit hands a task to the pool for class. It never blocks.
func (d *Dispatcher) submit(class Class, task func()) {
	if class == ClassIO {
		go func() {
			if d.ioSem != nil {
				// Acquire only fails on a done context.
				_ = d.ioSem.Acquire(context.Background(), 1)
				defer d.ioSem.Release(1)
			}
			task()
		}()
		return
	}
	if !d.queue.push(task) {
		// Workers are stopped only after every active agent drained.
		panic("agent: task submitted after dispatcher stopped")
	}
}

// Queued returns the number of CPU tasks waiting for a worker.
func (d *Dispatcher) Queued() int {
	return d.queue.len()
}

// Active returns the number of agents with an action queued or running.
func (d *Dispatcher) Active() int {
	return int(d.busy.Load())
}

// Closed reports whether Shutdown has been called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Shutdown stops accepting sends and waits until every agent has drained
// its mailbox, then stops the CPU workers. Agents in the failed state keep
// their queued actions and are not waited for.
//
// If ctx ends first, Shutdown returns ErrTimeout and the workers keep
// running until the remaining actions finish.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	already := d.closed
	d.closed = true
	d.mu.Unlock()

	if !already {
		d.logger.Info("dispatcher shutting down", slog.Int("active", d.Active()))
	}

	drained := make(chan struct{})
	go func() {
		d.active.Wait()
		d.queue.close()
		d.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ErrTimeout.WithDetails("dispatcher shutdown").WithCause(ctx.Err())
	}
}
