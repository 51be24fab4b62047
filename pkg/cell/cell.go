package cell

import (
	"github.com/yndnr/stmkit/internal/versioned"
)

// Cell is an atomically updated value.
type Cell[T any] struct {
	state     *versioned.Cell[T]
	validator Validator[T]
	watches   []Watch[T]
	observer  Observer
	name      string
}

// New creates a cell holding initial.
// Returns ErrInvalidState if the validator rejects initial.
func New[T any](initial T, opts ...Option[T]) (*Cell[T], error) {
	c := &Cell[T]{observer: nopObserver{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if err := c.validate(initial); err != nil {
		return nil, err
	}
	c.state = versioned.New(initial)
	return c, nil
}

// Deref returns the current value.
func (c *Cell[T]) Deref() T {
	return c.state.Load().Value
}

// Snapshot returns the current value and its version from a single load.
func (c *Cell[T]) Snapshot() (T, uint64) {
	snap := c.state.Load()
	return snap.Value, snap.Version
}

// Version returns the current version.
func (c *Cell[T]) Version() uint64 {
	return c.state.Version()
}

// Name returns the cell name.
func (c *Cell[T]) Name() string {
	return c.name
}

// Update replaces the value with f(current) and returns the new value.
//
// f is called again whenever another writer changes the cell between the
// read and the swap. If the validator rejects f's result the cell is left
// unchanged and ErrInvalidState is returned.
func (c *Cell[T]) Update(f func(T) T) (T, error) {
	var zero T
	if f == nil {
		return zero, ErrMissingArgument.WithDetails("update function is nil")
	}

	cur := c.state.Load()
	for retries := 0; ; retries++ {
		next := f(cur.Value)
		if err := c.validate(next); err != nil {
			c.observer.Rejected(c.name)
			return zero, err
		}

		won, ok := c.state.CompareAndSwap(cur, next)
		if ok {
			c.observer.Swapped(c.name, retries)
			c.notify(cur.Value, next)
			return next, nil
		}
		cur = won
	}
}

// Set replaces the value with v, subject to the validator.
func (c *Cell[T]) Set(v T) (T, error) {
	return c.Update(func(T) T { return v })
}

// CompareAndSet installs v only if the current version equals
// expectedVersion. It reports whether the value was installed.
func (c *Cell[T]) CompareAndSet(expectedVersion uint64, v T) (bool, error) {
	if err := c.validate(v); err != nil {
		c.observer.Rejected(c.name)
		return false, err
	}

	prev, ok := c.state.CompareVersionAndSwap(expectedVersion, v)
	if !ok {
		return false, nil
	}
	c.observer.Swapped(c.name, 0)
	c.notify(prev.Value, v)
	return true, nil
}

func (c *Cell[T]) validate(v T) error {
	if c.validator == nil {
		return nil
	}
	if err := c.validator(v); err != nil {
		if c.name != "" {
			return ErrInvalidState.WithDetails("cell " + c.name).WithCause(err)
		}
		return ErrInvalidState.WithCause(err)
	}
	return nil
}

func (c *Cell[T]) notify(old, new T) {
	for _, w := range c.watches {
		w(old, new)
	}
}
