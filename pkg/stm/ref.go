package stm

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/yndnr/stmkit/internal/versioned"
)

// refIDs orders commit locking.
var refIDs atomic.Uint64

// Ref is a transactional reference.
type Ref[T any] struct {
	id        uint64
	name      string
	mu        sync.Mutex
	state     *versioned.Cell[T]
	validator Validator[T]
	watches   []Watch[T]
}

// NewRef creates a ref holding initial.
// Returns ErrInvalidState if the validator rejects initial.
func NewRef[T any](initial T, opts ...RefOption[T]) (*Ref[T], error) {
	r := &Ref[T]{id: refIDs.Add(1)}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.check(initial); err != nil {
		return nil, err
	}
	r.state = versioned.New(initial)
	return r, nil
}

// ID returns the process-unique ref id.
func (r *Ref[T]) ID() uint64 {
	return r.id
}

// Name returns the ref name, or "ref-<id>" if none was set.
func (r *Ref[T]) Name() string {
	if r.name == "" {
		return "ref-" + strconv.FormatUint(r.id, 10)
	}
	return r.name
}

// Deref returns the committed value.
func (r *Ref[T]) Deref() T {
	return r.state.Load().Value
}

// Version returns the committed version.
func (r *Ref[T]) Version() uint64 {
	return r.state.Version()
}

// Read returns the ref's value as seen by tx: the staged value if written,
// the commute view if only commuted, otherwise the value recorded at the
// first read. The first read adds the ref to the read set.
func (r *Ref[T]) Read(tx *Txn) T {
	e := tx.entry(r)
	switch {
	case e.written:
		return as[T](e.staged)
	case len(e.commutes) > 0:
		return as[T](e.view)
	}
	return r.readInto(e)
}

// Alter stages f applied to the value seen by tx and returns the staged
// value. Pending commutes on the ref are folded in first.
func (r *Ref[T]) Alter(tx *Txn, f func(T) T) T {
	e := tx.entry(r)
	var base T
	if e.written {
		base = as[T](e.staged)
	} else {
		base = r.readInto(e)
		for _, c := range e.commutes {
			base = as[T](c(base))
		}
		e.commutes = nil
		e.view = nil
	}
	next := f(base)
	e.written = true
	e.staged = next
	return next
}

// Set stages v without reading the ref.
func (r *Ref[T]) Set(tx *Txn, v T) T {
	e := tx.entry(r)
	e.written = true
	e.staged = v
	e.commutes = nil
	e.view = nil
	return v
}

// Commute records f for re-application against the value committed at
// commit time and returns the in-transaction view. Commuted refs are not
// added to the read set, so concurrent writers do not force a retry.
// On a ref already written in tx, Commute behaves like Alter.
func (r *Ref[T]) Commute(tx *Txn, f func(T) T) T {
	e := tx.entry(r)
	if e.written {
		return r.Alter(tx, f)
	}

	var base T
	switch {
	case len(e.commutes) > 0:
		base = as[T](e.view)
	case e.read:
		base = as[T](e.readValue)
	default:
		base = r.state.Load().Value
	}

	view := f(base)
	e.commutes = append(e.commutes, func(v any) any { return f(as[T](v)) })
	e.view = view
	return view
}

// Ensure adds the ref to the read set without writing it. A concurrent
// commit to the ref makes tx retry.
func (r *Ref[T]) Ensure(tx *Txn) {
	r.readInto(tx.entry(r))
}

func (r *Ref[T]) readInto(e *entry) T {
	if !e.read {
		snap := r.state.Load()
		e.read = true
		e.readVersion = snap.Version
		e.readValue = snap.Value
	}
	return as[T](e.readValue)
}

func (r *Ref[T]) check(v T) error {
	if r.validator == nil {
		return nil
	}
	if err := r.validator(v); err != nil {
		return ErrInvalidState.WithDetails("ref " + r.Name()).WithCause(err)
	}
	return nil
}

func (r *Ref[T]) refID() uint64   { return r.id }
func (r *Ref[T]) refName() string { return r.Name() }
func (r *Ref[T]) lock()           { r.mu.Lock() }
func (r *Ref[T]) unlock()         { r.mu.Unlock() }

func (r *Ref[T]) version() uint64 {
	return r.state.Version()
}

func (r *Ref[T]) current() any {
	return r.state.Load().Value
}

func (r *Ref[T]) validate(v any) error {
	return r.check(as[T](v))
}

func (r *Ref[T]) install(v any) any {
	cur := r.state.Load()
	if _, ok := r.state.CompareAndSwap(cur, as[T](v)); !ok {
		panic("stm: ref " + r.Name() + " changed while locked")
	}
	return cur.Value
}

func (r *Ref[T]) notify(old, new any) {
	for _, w := range r.watches {
		w(as[T](old), as[T](new))
	}
}

// txRef is the type-erased view of a Ref used by the commit protocol.
// version, current, validate and install require the ref lock.
type txRef interface {
	refID() uint64
	refName() string
	lock()
	unlock()
	version() uint64
	current() any
	validate(v any) error
	install(v any) any
	notify(old, new any)
}

// as converts a type-erased value back to T. A nil interface yields the
// zero T, which covers refs of interface type holding nil.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}
