package leave

import (
	"context"
	"fmt"
)

// PolicyValidator evaluates annual caps and allocation coverage. It runs
// when a request is created and again as a pre-approval guard, since
// allocation state may have changed in between.
type PolicyValidator struct {
	Store PolicyStore
}

func NewPolicyValidator(store PolicyStore) *PolicyValidator {
	return &PolicyValidator{Store: store}
}

// CheckAnnualCap fails with ErrCapExceeded when the employee's counted
// requests of this classification in the request's calendar year, plus the
// candidate itself, exceed the classification cap.
func (v *PolicyValidator) CheckAnnualCap(ctx context.Context, req *LeaveRequest, leaveType *LeaveType) error {
	cap, capped := AnnualCaps[leaveType.Classification]
	if !capped {
		return nil
	}

	from, to := yearWindow(req.DateFrom.Year())
	total, err := v.Store.SumRequestDays(ctx, req.EmployeeID, req.LeaveTypeID, countedStates, from, to, req.ID)
	if err != nil {
		return err
	}
	total += req.Days

	if total > cap {
		return fmt.Errorf("%w: %s is limited to %g days per year", ErrCapExceeded, leaveType.Name, cap)
	}
	return nil
}

// CheckAllocationCoverage requires, for leave types that consume an
// allocation, a validate-state allocation whose window fully contains the
// requested range. ErrNoCoverage when the employee has no validated
// allocation at all, ErrPeriodExceeded when one exists but does not cover
// the range.
func (v *PolicyValidator) CheckAllocationCoverage(ctx context.Context, req *LeaveRequest, leaveType *LeaveType) error {
	if !leaveType.RequiresAllocation {
		return nil
	}

	covered, err := v.Store.HasCoveringAllocation(ctx, req.EmployeeID, req.LeaveTypeID, req.DateFrom, req.DateTo)
	if err != nil {
		return err
	}
	if covered {
		return nil
	}

	any, err := v.Store.HasValidatedAllocation(ctx, req.EmployeeID, req.LeaveTypeID)
	if err != nil {
		return err
	}
	if !any {
		return fmt.Errorf("%w: %s", ErrNoCoverage, leaveType.Name)
	}
	return fmt.Errorf("%w: %s", ErrPeriodExceeded, leaveType.Name)
}

// Check runs both constraints.
func (v *PolicyValidator) Check(ctx context.Context, req *LeaveRequest, leaveType *LeaveType) error {
	if err := v.CheckAnnualCap(ctx, req, leaveType); err != nil {
		return err
	}
	return v.CheckAllocationCoverage(ctx, req, leaveType)
}
