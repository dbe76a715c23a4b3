package leave

import "errors"

var (
	// Validation errors: the transition or create is blocked, prior state intact.
	ErrCapExceeded    = errors.New("annual leave cap exceeded")
	ErrNoCoverage     = errors.New("no validated allocation for this leave type")
	ErrPeriodExceeded = errors.New("requested period exceeds the allocation window")

	// User errors: illegal transition or missing input, no state change.
	ErrInvalidState   = errors.New("invalid state for this transition")
	ErrReasonRequired = errors.New("refuse reason is required")

	// Batch preconditions, surfaced before any side effect.
	ErrInvalidDays      = errors.New("number of days must be positive")
	ErrNoEmployeesFound = errors.New("no employees found for allocation")

	ErrNotFound = errors.New("leave record not found")
)
