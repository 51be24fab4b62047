package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("STM-TEST-1000", "test message"),
			expected: "[STM-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("STM-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[STM-TEST-1001] test message: extra info",
		},
		{
			name:     "error with details and cause",
			err:      NewDomainError("STM-TEST-1002", "test message").WithDetails("ref acct-1").WithCause(fmt.Errorf("balance -5")),
			expected: "[STM-TEST-1002] test message: ref acct-1: balance -5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("STM-TEST-1000", "message 1")
	err2 := NewDomainError("STM-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("STM-TEST-1001", "message 1") // Different code

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	err := ErrTimeout.WithCause(context.DeadlineExceeded)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should reach the cause")
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("errors.Is should match the code")
	}
	if errors.Unwrap(ErrTimeout) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("STM-TEST-1000", "original message")
	withDetails := original.WithDetailsf("ref %s", "acct-7")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "ref acct-7" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "ref acct-7")
	}
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("STM-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrInvalidState, "STM-STATE-4220") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(ErrInvalidState, "STM-STATE-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(ErrInvalidState, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(fmt.Errorf("regular error"), "") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrAgentFailed)
	if !IsDomainError(wrapped, "STM-AGENT-4230") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrTransactionFailed, "STM-TXN-5030"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrTimeout), "STM-AWAIT-4080"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		{ErrInvalidState, "STM-STATE-4220"},
		{ErrTransactionConflict, "STM-TXN-4090"},
		{ErrTransactionFailed, "STM-TXN-5030"},
		{ErrAgentFailed, "STM-AGENT-4230"},
		{ErrAgentNotFailed, "STM-AGENT-4090"},
		{ErrDispatcherClosed, "STM-AGENT-5030"},
		{ErrTimeout, "STM-AWAIT-4080"},
		{ErrInvalidArgument, "STM-ARG-1001"},
		{ErrMissingArgument, "STM-ARG-1002"},
		{ErrAccountNotFound, "LEDG-ACCT-4040"},
		{ErrAccountConflict, "LEDG-ACCT-4090"},
		{ErrInsufficientFunds, "LEDG-ACCT-4220"},
		{ErrRateLimited, "LEDG-SYS-4290"},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
			if seen[tt.code] {
				t.Errorf("duplicate code %q", tt.code)
			}
			seen[tt.code] = true
		})
	}
}
