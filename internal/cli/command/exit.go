package command

import (
	"errors"
	"strings"

	"github.com/yndnr/stmkit/internal/core/domain"
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitCheckFailed = 2
	ExitRejected    = 3  // a primitive or the ledger refused the operation
	ExitUsage       = 64 // bad argument, as in sysexits.h
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCheckFailed):
		return ExitCheckFailed
	case !domain.IsDomainError(err, ""):
		return ExitError
	}

	// Codes read <AREA>-<KIND>-<NNNN>.
	if parts := strings.Split(domain.GetErrorCode(err), "-"); len(parts) == 3 && parts[1] == "ARG" {
		return ExitUsage
	}
	return ExitRejected
}
