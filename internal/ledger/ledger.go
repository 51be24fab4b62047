package ledger

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yndnr/stmkit/internal/telemetry/logger"
	"github.com/yndnr/stmkit/internal/telemetry/tracer"
	"github.com/yndnr/stmkit/pkg/agent"
	"github.com/yndnr/stmkit/pkg/cmap"
	"github.com/yndnr/stmkit/pkg/stm"
)

// Ledger holds account balances and their audit log.
type Ledger struct {
	rt           *stm.Runtime
	accounts     *cmap.Map[*stm.Ref[int64]]
	audit        *agent.Agent[[]Entry]
	limiter      *Limiter
	historyLimit int
	observer     Observer
	log          logger.Logger
	shardOpts    []cmap.Option
}

// New creates an empty ledger whose transactions run on rt and whose
// audit agent runs on d.
func New(rt *stm.Runtime, d *agent.Dispatcher, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		rt:           rt,
		historyLimit: DefaultHistoryLimit,
		observer:     nopObserver{},
		log:          logger.Default().With("component", "ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.accounts = cmap.New[*stm.Ref[int64]](l.shardOpts...)

	audit, err := agent.New(d, []Entry(nil),
		agent.WithName[[]Entry]("ledger-audit"),
		agent.WithMode[[]Entry](agent.ModeContinue),
		agent.WithErrorHandler(func(a *agent.Agent[[]Entry], err error) {
			l.log.Error("audit append failed", "agent", a.Name(), "error", err.Error())
		}),
	)
	if err != nil {
		return nil, err
	}
	l.audit = audit
	return l, nil
}

func nonNegative(balance int64) error {
	if balance < 0 {
		return ErrInsufficientFunds.WithDetailsf("balance would be %d", balance)
	}
	return nil
}

// Open creates an account holding initial.
func (l *Ledger) Open(id string, initial int64) error {
	if id == "" {
		return ErrInvalidArgument.WithDetails("account id is empty")
	}
	if initial < 0 {
		return ErrInvalidArgument.WithDetailsf("initial balance %d is negative", initial)
	}

	_, created, err := l.accounts.LoadOrCreate(id, func() (*stm.Ref[int64], error) {
		return stm.NewRef(initial,
			stm.WithName[int64](id),
			stm.WithValidator(nonNegative),
		)
	})
	if err != nil {
		return err
	}
	if !created {
		return ErrAccountConflict.WithDetails(id)
	}

	if err := l.audit.SendIO(record(Entry{Kind: KindOpen, To: id, Amount: initial, At: time.Now()}, l.historyLimit)); err != nil {
		l.log.Warn("audit open failed", "account", id, "error", err.Error())
	}
	return nil
}

// context returns ctx carrying the ledger's logger, so that logger.L on
// it or on a transaction context derived from it logs through l.log.
func (l *Ledger) context(ctx context.Context) context.Context {
	return logger.WithLogger(ctx, l.log)
}

func (l *Ledger) account(id string) (*stm.Ref[int64], error) {
	ref, ok := l.accounts.Get(id)
	if !ok {
		return nil, ErrAccountNotFound.WithDetails(id)
	}
	return ref, nil
}

// Balance returns the committed balance of an account.
func (l *Ledger) Balance(id string) (int64, error) {
	ref, err := l.account(id)
	if err != nil {
		return 0, err
	}
	return ref.Deref(), nil
}

// Transfer moves amount from one account to another in one transaction.
// An overdraft fails with stm.ErrInvalidState wrapping
// ErrInsufficientFunds and changes nothing. With a limiter configured a
// throttled call fails with ErrRateLimited before touching any account.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64) (err error) {
	ctx, span := tracer.StartSpan(ctx, "ledger.Transfer",
		attribute.String("ledger.from", from),
		attribute.String("ledger.to", to),
		attribute.Int64("ledger.amount", amount),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transfer failed")
		}
		span.End()
	}()

	if amount <= 0 {
		return ErrInvalidArgument.WithDetailsf("amount %d is not positive", amount)
	}
	if from == to {
		return ErrInvalidArgument.WithDetails("transfer to the same account")
	}
	src, err := l.account(from)
	if err != nil {
		return err
	}
	dst, err := l.account(to)
	if err != nil {
		return err
	}
	if l.limiter != nil && !l.limiter.Allow() {
		l.observer.Transferred("limited")
		return ErrRateLimited.WithDetails("transfer")
	}

	txCtx := l.context(ctx)
	err = l.rt.Do(txCtx, func(tx *stm.Txn) error {
		txCtx = tx.Context()
		src.Alter(tx, func(b int64) int64 { return b - amount })
		dst.Alter(tx, func(b int64) int64 { return b + amount })
		agent.SendClassOnCommit(tx, l.audit, record(Entry{
			TxnID:  tx.ID(),
			Kind:   KindTransfer,
			From:   from,
			To:     to,
			Amount: amount,
			At:     time.Now(),
		}, l.historyLimit), agent.ClassIO)
		return nil
	})

	log := logger.L(txCtx)
	switch {
	case err == nil:
		l.observer.Transferred("ok")
		log.Debug("transfer committed", "from", from, "to", to, "amount", amount)
	case errors.Is(err, stm.ErrInvalidState):
		l.observer.Transferred("rejected")
		log.Debug("transfer rejected", "from", from, "to", to, "amount", amount, "error", err.Error())
	default:
		l.observer.Transferred("failed")
		log.Warn("transfer failed", "from", from, "to", to, "error", err.Error())
	}
	return err
}

// Deposit adds amount to an account. Concurrent deposits commute and do
// not retry against each other.
func (l *Ledger) Deposit(ctx context.Context, id string, amount int64) (err error) {
	ctx, span := tracer.StartSpan(ctx, "ledger.Deposit",
		attribute.String("ledger.to", id),
		attribute.Int64("ledger.amount", amount),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "deposit failed")
		}
		span.End()
	}()

	if amount <= 0 {
		return ErrInvalidArgument.WithDetailsf("amount %d is not positive", amount)
	}
	ref, err := l.account(id)
	if err != nil {
		return err
	}

	txCtx := l.context(ctx)
	err = l.rt.Do(txCtx, func(tx *stm.Txn) error {
		txCtx = tx.Context()
		ref.Commute(tx, func(b int64) int64 { return b + amount })
		agent.SendClassOnCommit(tx, l.audit, record(Entry{
			TxnID:  tx.ID(),
			Kind:   KindDeposit,
			To:     id,
			Amount: amount,
			At:     time.Now(),
		}, l.historyLimit), agent.ClassIO)
		return nil
	})
	if err != nil {
		logger.L(txCtx).Warn("deposit failed", "to", id, "error", err.Error())
		return err
	}
	logger.L(txCtx).Debug("deposit committed", "to", id, "amount", amount)
	return nil
}

// Snapshot returns every balance as of a single commit point.
func (l *Ledger) Snapshot(ctx context.Context) (map[string]int64, error) {
	ids := l.accounts.Keys()
	refs := make([]*stm.Ref[int64], 0, len(ids))
	for _, id := range ids {
		ref, _ := l.accounts.Get(id)
		refs = append(refs, ref)
	}

	return stm.Atomically(ctx, l.rt, func(tx *stm.Txn) (map[string]int64, error) {
		// Pin every account first so a transfer committing midway through
		// the sum forces a retry.
		for _, ref := range refs {
			ref.Ensure(tx)
		}
		out := make(map[string]int64, len(refs))
		for i, ref := range refs {
			out[ids[i]] = ref.Read(tx)
		}
		return out, nil
	})
}

// Total returns the sum of all balances as of a single commit point.
func (l *Ledger) Total(ctx context.Context) (int64, error) {
	balances, err := l.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, b := range balances {
		sum += b
	}
	return sum, nil
}

// Accounts returns the account ids in ascending order.
func (l *Ledger) Accounts() []string {
	return l.accounts.Keys()
}

// Audit returns the audit entries applied so far, oldest first. Call Sync
// first to include every committed change.
func (l *Ledger) Audit() []Entry {
	return slices.Clone(l.audit.Deref())
}

// Sync waits until every audit entry sent so far has been applied.
func (l *Ledger) Sync(ctx context.Context) error {
	return l.audit.Await(ctx)
}

// Limiter returns the configured limiter, or nil.
func (l *Ledger) Limiter() *Limiter {
	return l.limiter
}
