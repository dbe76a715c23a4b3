package leave

import (
	"context"
	"log/slog"
	"time"

	"timeoff/internal/unitwork"
)

// RuleEngine grants rule-based allocations to employees. Apply is
// idempotent: for any active rule and eligible employee it creates at most
// one allocation, and rejection has no side effects.
type RuleEngine struct {
	Store RuleStore
	Now   func() time.Time
}

func NewRuleEngine(store RuleStore) *RuleEngine {
	return &RuleEngine{Store: store, Now: time.Now}
}

// Apply grants the rule's allocation to the employee. It reports false
// when the rule is inactive, the employee's department is out of scope,
// an open allocation already covers today, an auto-generated allocation
// already exists for the pair, or the insert fails. Storage errors are
// logged and absorbed so a bad record never aborts a rule sweep.
func (e *RuleEngine) Apply(ctx context.Context, rule AllocationRule, emp EmployeeRef) bool {
	if !rule.Active {
		return false
	}
	if emp.DepartmentID == "" || !containsID(rule.DepartmentIDs, emp.DepartmentID) {
		return false
	}

	today := e.Now().UTC().Truncate(24 * time.Hour)

	open, err := e.Store.HasOpenAllocationOn(ctx, emp.ID, rule.LeaveTypeID, today)
	if err != nil {
		slog.Warn("allocation rule lookup failed", "rule", rule.ID, "employee", emp.ID, "err", err)
		return false
	}
	if open {
		return false
	}

	// Re-entrant triggers can arrive with an existing auto allocation whose
	// window no longer covers today; the marker check still rejects them.
	auto, err := e.Store.HasAutoAllocation(ctx, emp.ID, rule.LeaveTypeID)
	if err != nil {
		slog.Warn("allocation rule lookup failed", "rule", rule.ID, "employee", emp.ID, "err", err)
		return false
	}
	if auto {
		return false
	}

	alloc := &LeaveAllocation{
		Name:          "Auto allocation: " + rule.Name,
		EmployeeID:    emp.ID,
		LeaveTypeID:   rule.LeaveTypeID,
		Days:          rule.Days,
		DateFrom:      today,
		DateTo:        today.AddDate(1, 0, 0),
		State:         StateValidate,
		AutoGenerated: true,
	}
	inserted, err := e.Store.InsertAutoAllocation(ctx, alloc)
	if err != nil {
		slog.Warn("auto allocation insert failed", "rule", rule.ID, "employee", emp.ID, "err", err)
		return false
	}
	return inserted
}

// ApplyRulesForEmployee runs every active rule scoped to the employee's
// department, at most once per employee within the current unit of work.
// Employee creation and department reassignment both funnel through here.
func (e *RuleEngine) ApplyRulesForEmployee(ctx context.Context, emp EmployeeRef) (int, error) {
	if emp.DepartmentID == "" {
		return 0, nil
	}
	if !unitwork.Once(ctx, "apply_allocation_rules", emp.ID) {
		return 0, nil
	}

	rules, err := e.Store.ActiveRulesForDepartment(ctx, emp.DepartmentID)
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, rule := range rules {
		if e.Apply(ctx, rule, emp) {
			granted++
		}
	}
	return granted, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
