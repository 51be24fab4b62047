package ledger

import (
	"time"

	"github.com/yndnr/stmkit/pkg/cell"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a token bucket refilled at rate tokens per second up to
// burst. Its state lives in a cell, so Allow never blocks and never takes
// a lock.
type Limiter struct {
	rate  float64
	burst float64
	state *cell.Cell[bucket]
	now   func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*limiterSettings)

type limiterSettings struct {
	observer cell.Observer
}

// WithCellObserver reports the bucket cell's updates to o.
func WithCellObserver(o cell.Observer) LimiterOption {
	return func(s *limiterSettings) {
		s.observer = o
	}
}

// NewLimiter creates a full bucket.
func NewLimiter(rate float64, burst int, opts ...LimiterOption) (*Limiter, error) {
	if rate <= 0 {
		return nil, ErrInvalidArgument.WithDetailsf("limiter rate must be positive, got %v", rate)
	}
	if burst <= 0 {
		return nil, ErrInvalidArgument.WithDetailsf("limiter burst must be positive, got %d", burst)
	}
	var s limiterSettings
	for _, opt := range opts {
		opt(&s)
	}

	l := &Limiter{
		rate:  rate,
		burst: float64(burst),
		now:   time.Now,
	}
	cellOpts := []cell.Option[bucket]{cell.WithName[bucket]("ledger-limiter")}
	if s.observer != nil {
		cellOpts = append(cellOpts, cell.WithObserver[bucket](s.observer))
	}
	state, err := cell.New(bucket{tokens: l.burst, last: l.now()}, cellOpts...)
	if err != nil {
		return nil, err
	}
	l.state = state
	return l, nil
}

// Allow is AllowN(1).
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN takes n tokens if available and reports whether it did.
func (l *Limiter) AllowN(n int) bool {
	if n <= 0 {
		return true
	}
	want := float64(n)
	var ok bool
	// The update may rerun after a lost race; ok reflects the installed run.
	_, _ = l.state.Update(func(b bucket) bucket {
		now := l.now()
		tokens := b.tokens
		if elapsed := now.Sub(b.last); elapsed > 0 {
			tokens = min(l.burst, tokens+elapsed.Seconds()*l.rate)
		}
		ok = tokens >= want
		if ok {
			tokens -= want
		}
		return bucket{tokens: tokens, last: now}
	})
	return ok
}

// Tokens returns the tokens available at the last update.
func (l *Limiter) Tokens() float64 {
	return l.state.Deref().tokens
}
