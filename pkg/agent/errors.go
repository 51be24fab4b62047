package agent

import "github.com/yndnr/stmkit/internal/core/domain"

var (
	// ErrAgentFailed is returned by sends to a failed agent, and by awaits
	// whose actions were stranded by the failure.
	ErrAgentFailed = domain.ErrAgentFailed

	// ErrAgentNotFailed is returned by Restart on a healthy agent.
	ErrAgentNotFailed = domain.ErrAgentNotFailed

	// ErrDispatcherClosed is returned once the dispatcher is shut down.
	ErrDispatcherClosed = domain.ErrDispatcherClosed

	// ErrTimeout is returned when an await deadline passes first.
	ErrTimeout = domain.ErrTimeout

	// ErrInvalidState is the failure recorded when the validator rejects
	// an action result or a restart value.
	ErrInvalidState = domain.ErrInvalidState

	// ErrMissingArgument is returned for nil actions and dispatchers.
	ErrMissingArgument = domain.ErrMissingArgument
)
