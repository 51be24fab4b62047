package stm

import (
	"cmp"
	"context"
	"slices"
)

// Txn is the state of one transaction attempt. It is created by
// Runtime.Do, discarded on retry and must not be shared across goroutines.
type Txn struct {
	ctx     context.Context
	id      string
	attempt int

	entries map[uint64]*entry
	order   []*entry
	hooks   []func()
	done    bool
}

// entry tracks one ref touched by the attempt.
type entry struct {
	ref txRef

	read        bool
	readVersion uint64
	readValue   any

	written bool
	staged  any

	commutes []func(any) any
	view     any
}

type txnKey struct{}

func newTxn(ctx context.Context, id string, attempt int) *Txn {
	tx := &Txn{
		id:      id,
		attempt: attempt,
		entries: make(map[uint64]*entry),
	}
	tx.ctx = context.WithValue(ctx, txnKey{}, tx)
	return tx
}

// FromContext returns the transaction running in ctx, if any.
func FromContext(ctx context.Context) (*Txn, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txnKey{}).(*Txn)
	if !ok || tx.done {
		return nil, false
	}
	return tx, true
}

// ID returns the transaction id, shared by every attempt.
func (tx *Txn) ID() string {
	return tx.id
}

// Attempt returns the 1-based attempt number.
func (tx *Txn) Attempt() int {
	return tx.attempt
}

// Context returns a context carrying tx. Passing it to Runtime.Do or
// Atomically nests the inner call into tx.
func (tx *Txn) Context() context.Context {
	return tx.ctx
}

// OnCommit registers fn to run once after the transaction commits, after
// watches. Hooks of attempts that do not commit are dropped.
func (tx *Txn) OnCommit(fn func()) {
	if fn != nil {
		tx.hooks = append(tx.hooks, fn)
	}
}

func (tx *Txn) entry(r txRef) *entry {
	id := r.refID()
	if e, ok := tx.entries[id]; ok {
		return e
	}
	e := &entry{ref: r}
	tx.entries[id] = e
	tx.order = append(tx.order, e)
	return e
}

// stale reports whether a ref in the read set has been committed since
// the attempt read it. It takes no locks.
func (tx *Txn) stale() bool {
	for _, e := range tx.order {
		if e.read && e.ref.version() != e.readVersion {
			return true
		}
	}
	return false
}

// change is a value installed by a commit, kept for watch notification.
type change struct {
	ref      txRef
	old, new any
}

// commit runs the commit protocol. It returns the installed changes in
// ref id order, errConflict if the read set is stale, or ErrInvalidState
// if a validator rejected a value.
func (tx *Txn) commit() ([]change, error) {
	if len(tx.order) == 0 {
		return nil, nil
	}

	locked := slices.Clone(tx.order)
	slices.SortFunc(locked, func(a, b *entry) int {
		return cmp.Compare(a.ref.refID(), b.ref.refID())
	})

	for _, e := range locked {
		e.ref.lock()
	}
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].ref.unlock()
		}
	}()

	for _, e := range locked {
		if e.read && e.ref.version() != e.readVersion {
			return nil, errConflict.WithDetails("ref " + e.ref.refName())
		}
	}

	pending := make([]change, 0, len(locked))
	for _, e := range locked {
		var next any
		switch {
		case e.written:
			next = e.staged
		case len(e.commutes) > 0:
			next = e.ref.current()
			for _, c := range e.commutes {
				next = c(next)
			}
		default:
			continue
		}
		if err := e.ref.validate(next); err != nil {
			return nil, err
		}
		pending = append(pending, change{ref: e.ref, new: next})
	}

	for i := range pending {
		pending[i].old = pending[i].ref.install(pending[i].new)
	}
	return pending, nil
}

// publish fires watches and hooks of a committed attempt.
func (tx *Txn) publish(changes []change) {
	tx.done = true
	for _, c := range changes {
		c.ref.notify(c.old, c.new)
	}
	for _, fn := range tx.hooks {
		fn()
	}
}
