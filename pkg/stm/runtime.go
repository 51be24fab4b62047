package stm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/stmkit/internal/telemetry/logger"
)

const tracerName = "github.com/yndnr/stmkit/pkg/stm"

// Runtime runs transactions with a shared retry policy, logger and
// observer. A nil *Runtime uses the defaults.
type Runtime struct {
	settings settings
}

// NewRuntime creates a runtime.
func NewRuntime(opts ...Option) *Runtime {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Runtime{settings: s}
}

func (rt *Runtime) resolve(opts []Option) settings {
	var s settings
	if rt == nil {
		s = defaultSettings()
	} else {
		s = rt.settings
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Do runs fn in a transaction, retrying on conflict until it commits.
//
// If ctx already carries a running transaction (see Txn.Context), fn runs
// inside it and commits with it. Txn.Context also carries the transaction
// id for logger.L. An error returned by fn aborts the transaction and is
// returned unchanged, unless a ref fn read has been committed since, in
// which case the attempt is retried. A validator rejection returns
// ErrInvalidState. Exhausting WithMaxAttempts, or ctx ending between
// attempts, returns ErrTransactionFailed.
func (rt *Runtime) Do(ctx context.Context, fn func(*Txn) error, opts ...Option) error {
	if fn == nil {
		return ErrMissingArgument.WithDetails("transaction body is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if outer, ok := FromContext(ctx); ok {
		return fn(outer)
	}

	s := rt.resolve(opts)
	id := ulid.Make().String()
	ctx = logger.WithTxnID(ctx, id)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "stm.Transaction",
		trace.WithAttributes(attribute.String("stm.txn_id", id)),
	)
	defer span.End()

	log := s.logger.With(slog.String("txn_id", id))
	start := time.Now()

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, backoff(s.backoffBase, s.backoffMax, attempt-1)); err != nil {
				s.observer.Aborted("canceled")
				span.RecordError(err)
				span.SetStatus(codes.Error, "canceled")
				return ErrTransactionFailed.WithDetailsf("canceled after %d attempts", attempt-1).WithCause(err)
			}
		}

		tx := newTxn(ctx, id, attempt)
		var changes []change
		err := fn(tx)
		switch {
		case err == nil:
			changes, err = tx.commit()
		case tx.stale():
			// fn saw refs from different commits; its error may not
			// correspond to any serial order.
			err = errConflict.WithDetails("read set changed before body error").WithCause(err)
		default:
			tx.done = true
			s.observer.Aborted("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "body failed")
			return err
		}
		if err == nil {
			tx.publish(changes)
			elapsed := time.Since(start)
			s.observer.Committed(attempt, elapsed)
			span.SetAttributes(
				attribute.Int("stm.attempts", attempt),
				attribute.Int("stm.refs_changed", len(changes)),
			)
			log.Debug("transaction committed",
				slog.Int("attempts", attempt),
				slog.Int("changed", len(changes)),
				slog.Duration("duration", elapsed),
			)
			return nil
		}
		tx.done = true

		if !errors.Is(err, errConflict) {
			s.observer.Aborted("invalid_state")
			span.RecordError(err)
			span.SetStatus(codes.Error, "validation failed")
			log.Debug("transaction rejected", slog.String("error", err.Error()))
			return err
		}

		s.observer.Retried(attempt)
		log.Debug("transaction conflict",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			s.observer.Aborted("exhausted")
			span.SetStatus(codes.Error, "retry limit exceeded")
			return ErrTransactionFailed.WithDetailsf("gave up after %d attempts", attempt)
		}
	}
}

// Atomically runs fn in a transaction on rt and returns its result.
// See Runtime.Do for retry, nesting and error semantics.
func Atomically[R any](ctx context.Context, rt *Runtime, fn func(*Txn) (R, error), opts ...Option) (R, error) {
	var result R
	if fn == nil {
		return result, ErrMissingArgument.WithDetails("transaction body is nil")
	}
	err := rt.Do(ctx, func(tx *Txn) error {
		r, err := fn(tx)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return result, nil
}

// backoff returns a jittered delay in [d/2, d) where d doubles from base
// per retry and is capped at ceiling.
func backoff(base, ceiling time.Duration, retry int) time.Duration {
	if base <= 0 {
		return 0
	}
	if ceiling < base {
		ceiling = base
	}
	d := base
	for i := 1; i < retry && d < ceiling; i++ {
		d *= 2
	}
	d = min(d, ceiling)
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half)
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil || d <= 0 {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
