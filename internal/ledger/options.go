package ledger

import (
	"github.com/yndnr/stmkit/internal/telemetry/logger"
	"github.com/yndnr/stmkit/pkg/cmap"
)

// DefaultHistoryLimit is the number of audit entries kept by default.
const DefaultHistoryLimit = 10000

// Observer receives transfer outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Transferred reports a finished transfer. result is one of "ok",
	// "rejected", "limited" or "failed".
	Transferred(result string)
}

type nopObserver struct{}

func (nopObserver) Transferred(string) {}

// Option configures a Ledger.
type Option func(*Ledger)

// WithHistoryLimit bounds the audit log. Older entries are dropped.
func WithHistoryLimit(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.historyLimit = n
		}
	}
}

// WithLimiter throttles Transfer.
func WithLimiter(lim *Limiter) Option {
	return func(l *Ledger) {
		l.limiter = lim
	}
}

// WithObserver sets the transfer observer.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log.With("component", "ledger")
		}
	}
}

// WithShardCount sets the shard count of the account directory.
func WithShardCount(n int) Option {
	return func(l *Ledger) {
		l.shardOpts = append(l.shardOpts, cmap.WithShardCount(n))
	}
}
