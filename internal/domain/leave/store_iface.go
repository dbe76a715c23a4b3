package leave

import (
	"context"
	"time"
)

// RequestStore is what the state machine needs from persistence. Each
// mutating call is a single atomic write so a transition never partially
// applies.
type RequestStore interface {
	GetRequest(ctx context.Context, requestID string) (*LeaveRequest, error)
	GetLeaveType(ctx context.Context, leaveTypeID string) (*LeaveType, error)
	EmployeeUserID(ctx context.Context, employeeID string) (string, error)
	UpdateRequestState(ctx context.Context, requestID, state string) error
	MarkApproved(ctx context.Context, requestID, state, approverField, approverID string) error
	MarkRefused(ctx context.Context, requestID, approverField, approverID, reason string) error
	SetRequestMeeting(ctx context.Context, requestID, meetingID string) error
}

// PolicyStore backs the constraint validator.
type PolicyStore interface {
	SumRequestDays(ctx context.Context, employeeID, leaveTypeID string, states []string, from, to time.Time, excludeRequestID string) (float64, error)
	HasCoveringAllocation(ctx context.Context, employeeID, leaveTypeID string, from, to time.Time) (bool, error)
	HasValidatedAllocation(ctx context.Context, employeeID, leaveTypeID string) (bool, error)
}

// RuleStore backs the allocation-rule engine. InsertAutoAllocation is the
// trusted bulk insert: it bypasses the validated request path, writes
// exactly one row, and reports false when the partial unique index on
// auto-generated allocations already holds a row for the pair.
type RuleStore interface {
	ActiveRulesForDepartment(ctx context.Context, departmentID string) ([]AllocationRule, error)
	HasOpenAllocationOn(ctx context.Context, employeeID, leaveTypeID string, day time.Time) (bool, error)
	HasAutoAllocation(ctx context.Context, employeeID, leaveTypeID string) (bool, error)
	InsertAutoAllocation(ctx context.Context, alloc *LeaveAllocation) (bool, error)
}

// MassStore backs the mass-allocation batch processor.
type MassStore interface {
	ActiveEmployeesInDepartments(ctx context.Context, departmentIDs []string) ([]string, error)
	FindOpenAllocation(ctx context.Context, employeeID, leaveTypeID string) (string, bool, error)
	AddAllocationDays(ctx context.Context, allocationID string, days float64) error
	CreateAllocation(ctx context.Context, alloc *LeaveAllocation) (string, error)
	FindActiveRule(ctx context.Context, leaveTypeID string, departmentIDs []string) (string, bool, error)
	AddRuleDepartments(ctx context.Context, ruleID string, departmentIDs []string) error
	CreateRule(ctx context.Context, rule *AllocationRule) (string, error)
}
