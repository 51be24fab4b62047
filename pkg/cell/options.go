package cell

// Validator checks a proposed value. A non-nil error rejects it.
type Validator[T any] func(T) error

// Watch is called after a successful change.
type Watch[T any] func(old, new T)

// Observer receives update outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Swapped reports a successful update and the number of lost races
	// before it.
	Swapped(name string, retries int)
	// Rejected reports an update refused by the validator.
	Rejected(name string)
}

// Option configures a Cell.
type Option[T any] func(*Cell[T])

// WithValidator sets the validator run against every proposed value,
// including the initial one.
func WithValidator[T any](v Validator[T]) Option[T] {
	return func(c *Cell[T]) {
		c.validator = v
	}
}

// WithWatch appends a watch. Watches run in registration order.
func WithWatch[T any](w Watch[T]) Option[T] {
	return func(c *Cell[T]) {
		if w != nil {
			c.watches = append(c.watches, w)
		}
	}
}

// WithObserver sets the update observer.
func WithObserver[T any](o Observer) Option[T] {
	return func(c *Cell[T]) {
		c.observer = o
	}
}

// WithName sets the name reported to the observer.
func WithName[T any](name string) Option[T] {
	return func(c *Cell[T]) {
		c.name = name
	}
}

type nopObserver struct{}

func (nopObserver) Swapped(string, int) {}
func (nopObserver) Rejected(string)     {}
