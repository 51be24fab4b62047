package ledger

import "github.com/yndnr/stmkit/internal/core/domain"

var (
	ErrAccountNotFound = domain.ErrAccountNotFound
	ErrAccountConflict = domain.ErrAccountConflict
	ErrRateLimited     = domain.ErrRateLimited
	ErrInvalidArgument = domain.ErrInvalidArgument

	// ErrInsufficientFunds is the validator failure behind a transfer that
	// would overdraw an account. Callers see it wrapped in
	// stm.ErrInvalidState.
	ErrInsufficientFunds = domain.ErrInsufficientFunds
)
