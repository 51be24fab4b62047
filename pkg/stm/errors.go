package stm

import "github.com/yndnr/stmkit/internal/core/domain"

var (
	// ErrInvalidState is returned when a validator rejects a staged value.
	// The transaction is not retried and no ref changes.
	ErrInvalidState = domain.ErrInvalidState

	// ErrTransactionFailed is returned when the retry budget is exhausted
	// or the context ends between attempts.
	ErrTransactionFailed = domain.ErrTransactionFailed

	// ErrMissingArgument is returned for a nil transaction body.
	ErrMissingArgument = domain.ErrMissingArgument

	// errConflict drives retry and never reaches callers.
	errConflict = domain.ErrTransactionConflict
)
