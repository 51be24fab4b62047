package agent

import "sync"

// fifo is an unbounded FIFO. It is not safe for concurrent use.
type fifo[E any] struct {
	items []E
}

func (q *fifo[E]) push(e E) {
	q.items = append(q.items, e)
}

func (q *fifo[E]) pop() (E, bool) {
	var zero E
	if len(q.items) == 0 {
		return zero, false
	}
	e := q.items[0]
	// Clear the slot so the backing array does not pin the closure.
	q.items[0] = zero
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return e, true
}

func (q *fifo[E]) peek() (E, bool) {
	if len(q.items) == 0 {
		var zero E
		return zero, false
	}
	return q.items[0], true
}

func (q *fifo[E]) len() int {
	return len(q.items)
}

func (q *fifo[E]) clear() int {
	n := len(q.items)
	clear(q.items)
	q.items = q.items[:0]
	return n
}

// runQueue feeds the CPU workers. push never blocks.
type runQueue struct {
	mu     sync.Mutex
	tasks  fifo[func()]
	closed bool
	signal chan struct{} // buffered, size 1
}

func newRunQueue() *runQueue {
	return &runQueue{signal: make(chan struct{}, 1)}
}

func (q *runQueue) push(task func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks.push(task)
	q.mu.Unlock()
	q.wake()
	return true
}

// pop blocks until a task is available. It returns false once the queue is
// closed and drained.
func (q *runQueue) pop() (func(), bool) {
	for {
		q.mu.Lock()
		task, ok := q.tasks.pop()
		more := q.tasks.len() > 0
		closed := q.closed
		q.mu.Unlock()

		if ok {
			if more {
				q.wake()
			}
			return task, true
		}
		if closed {
			// Pass the wake-up on so every worker sees the close.
			q.wake()
			return nil, false
		}
		<-q.signal
	}
}

func (q *runQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.len()
}

func (q *runQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *runQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
