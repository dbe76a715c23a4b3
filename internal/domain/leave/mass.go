package leave

import (
	"context"
	"log/slog"
	"time"
)

// MassAllocator applies one allocation (or increment) to every active
// employee in a department set. Employees are processed sequentially;
// a failure on one is logged and skipped, never aborting the batch.
type MassAllocator struct {
	Store MassStore
	Now   func() time.Time
}

func NewMassAllocator(store MassStore) *MassAllocator {
	return &MassAllocator{Store: store, Now: time.Now}
}

// Allocate grants days of leaveType to every active employee of the given
// departments and returns how many employees were updated or created.
// When autoRule is set, an active AllocationRule for (leaveType,
// departments) is found or created so later joiners are auto-granted.
func (m *MassAllocator) Allocate(ctx context.Context, leaveTypeID string, days float64, departmentIDs []string, autoRule bool) (int, error) {
	if days <= 0 {
		return 0, ErrInvalidDays
	}
	if len(departmentIDs) == 0 {
		return 0, ErrNoEmployeesFound
	}

	employees, err := m.Store.ActiveEmployeesInDepartments(ctx, departmentIDs)
	if err != nil {
		return 0, err
	}
	if len(employees) == 0 {
		return 0, ErrNoEmployeesFound
	}

	processed := 0
	for _, employeeID := range employees {
		if err := m.allocateOne(ctx, employeeID, leaveTypeID, days); err != nil {
			slog.Warn("mass allocation skipped employee", "employee", employeeID, "leaveType", leaveTypeID, "err", err)
			continue
		}
		processed++
	}

	if autoRule {
		if err := m.ensureRule(ctx, leaveTypeID, days, departmentIDs); err != nil {
			return processed, err
		}
	}
	return processed, nil
}

func (m *MassAllocator) allocateOne(ctx context.Context, employeeID, leaveTypeID string, days float64) error {
	allocationID, found, err := m.Store.FindOpenAllocation(ctx, employeeID, leaveTypeID)
	if err != nil {
		return err
	}
	if found {
		// TODO: confirm with product whether a duplicate should increment the
		// existing allocation or reject; additive is the current contract.
		return m.Store.AddAllocationDays(ctx, allocationID, days)
	}

	today := m.Now().UTC().Truncate(24 * time.Hour)
	_, err = m.Store.CreateAllocation(ctx, &LeaveAllocation{
		Name:        "Mass allocation",
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Days:        days,
		DateFrom:    today,
		DateTo:      today.AddDate(1, 0, 0),
		State:       StateValidate,
	})
	return err
}

func (m *MassAllocator) ensureRule(ctx context.Context, leaveTypeID string, days float64, departmentIDs []string) error {
	ruleID, found, err := m.Store.FindActiveRule(ctx, leaveTypeID, departmentIDs)
	if err != nil {
		return err
	}
	if found {
		// The found rule may scope only part of the requested departments;
		// widen it so later joiners in every requested department are covered.
		return m.Store.AddRuleDepartments(ctx, ruleID, departmentIDs)
	}
	_, err = m.Store.CreateRule(ctx, &AllocationRule{
		Name:          "Mass allocation rule",
		LeaveTypeID:   leaveTypeID,
		DepartmentIDs: departmentIDs,
		Days:          days,
		Active:        true,
	})
	return err
}
