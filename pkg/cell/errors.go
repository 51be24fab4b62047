package cell

import "github.com/yndnr/stmkit/internal/core/domain"

var (
	// ErrInvalidState is returned when the validator rejects a value.
	ErrInvalidState = domain.ErrInvalidState

	// ErrMissingArgument is returned for a nil update function.
	ErrMissingArgument = domain.ErrMissingArgument
)
