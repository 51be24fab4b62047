// Package versioned provides the storage unit shared by every primitive in
// stmkit: a value paired with a monotonically increasing version stamp.
//
// The pair is held as one immutable snapshot behind an atomic pointer, so a
// reader always sees a value together with the version it was written at.
// Writers replace the snapshot with compare-and-swap on the snapshot they
// loaded; a successful swap always bumps the version by exactly one.
package versioned

import "sync/atomic"

// Snapshot is an immutable (value, version) pair.
// Never modify a Snapshot after it has been published.
type Snapshot[T any] struct {
	Value   T
	Version uint64
}

// Cell holds the current snapshot of a value.
// The zero Cell is not usable; create one with New.
type Cell[T any] struct {
	current atomic.Pointer[Snapshot[T]]
}

// New creates a cell holding initial at version 0.
func New[T any](initial T) *Cell[T] {
	c := &Cell[T]{}
	c.current.Store(&Snapshot[T]{Value: initial})
	return c
}

// Load returns the current snapshot.
func (c *Cell[T]) Load() *Snapshot[T] {
	return c.current.Load()
}

// Version returns the current version.
func (c *Cell[T]) Version() uint64 {
	return c.current.Load().Version
}

// CompareAndSwap installs value at old.Version+1 if old is still the
// current snapshot. It returns the installed snapshot and true on success,
// or the snapshot that won and false on failure.
//
// Snapshots are compared by identity. Holding old keeps it reachable, so
// its address cannot be reused and the comparison is ABA-free.
func (c *Cell[T]) CompareAndSwap(old *Snapshot[T], value T) (*Snapshot[T], bool) {
	next := &Snapshot[T]{Value: value, Version: old.Version + 1}
	if c.current.CompareAndSwap(old, next) {
		return next, true
	}
	return c.current.Load(), false
}

// CompareVersionAndSwap installs value if the current version equals
// expected. It returns the replaced snapshot and true on success, or the
// current snapshot and false. A writer that wins between the load and the
// swap has bumped the version, so the next pass reports the mismatch.
func (c *Cell[T]) CompareVersionAndSwap(expected uint64, value T) (*Snapshot[T], bool) {
	for {
		cur := c.current.Load()
		if cur.Version != expected {
			return cur, false
		}
		if _, ok := c.CompareAndSwap(cur, value); ok {
			return cur, true
		}
	}
}
