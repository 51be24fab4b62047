package domain

import (
	"errors"
	"fmt"
)

// DomainError represents an error with a structured error code.
// Codes have the form "<AREA>-<KIND>-<NNNN>".
type DomainError struct {
	Code    string // Error code (e.g., "STM-STATE-4220")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// State Errors (STATE)
// ============================================================================

var (
	// ErrInvalidState indicates a validator rejected a proposed value.
	// Never retried.
	ErrInvalidState = NewDomainError("STM-STATE-4220", "validator rejected proposed value")
)

// ============================================================================
// Transaction Errors (TXN)
// ============================================================================

var (
	// ErrTransactionConflict signals that a ref in the read set changed
	// before commit. It drives automatic retry and is not returned to callers.
	ErrTransactionConflict = NewDomainError("STM-TXN-4090", "transaction conflict")

	// ErrTransactionFailed indicates the retry budget was exhausted.
	ErrTransactionFailed = NewDomainError("STM-TXN-5030", "transaction retry limit exceeded")
)

// ============================================================================
// Agent Errors (AGENT, AWAIT)
// ============================================================================

var (
	// ErrAgentFailed indicates the agent is in its failed state and must be
	// restarted before it accepts actions.
	ErrAgentFailed = NewDomainError("STM-AGENT-4230", "agent is failed, needs restart")

	// ErrAgentNotFailed indicates Restart was called on a healthy agent.
	ErrAgentNotFailed = NewDomainError("STM-AGENT-4090", "agent does not need a restart")

	// ErrDispatcherClosed indicates the dispatcher no longer accepts actions.
	ErrDispatcherClosed = NewDomainError("STM-AGENT-5030", "dispatcher is shut down")

	// ErrTimeout indicates an await deadline elapsed with actions pending.
	ErrTimeout = NewDomainError("STM-AWAIT-4080", "await timed out")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("STM-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("STM-ARG-1002", "missing required argument")
)

// ============================================================================
// Ledger Errors (ACCT, SYS)
// ============================================================================

var (
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = NewDomainError("LEDG-ACCT-4040", "account not found")

	// ErrAccountConflict indicates the account ID already exists.
	ErrAccountConflict = NewDomainError("LEDG-ACCT-4090", "account id conflict")

	// ErrInsufficientFunds indicates a debit larger than the balance.
	ErrInsufficientFunds = NewDomainError("LEDG-ACCT-4220", "insufficient funds")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("LEDG-SYS-4290", "too many requests")
)
