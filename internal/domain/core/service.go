package core

import (
	"context"
	"log/slog"

	"timeoff/internal/domain/leave"
)

// AllocationRules is the slice of the leave core the directory triggers:
// rule application on employee creation and department reassignment.
type AllocationRules interface {
	ApplyRulesForEmployee(ctx context.Context, emp leave.EmployeeRef) (int, error)
}

type Service struct {
	Store *Store
	Rules AllocationRules
}

func NewService(store *Store, rules AllocationRules) *Service {
	return &Service{Store: store, Rules: rules}
}

func (s *Service) ListDepartments(ctx context.Context, limit, offset int) ([]Department, error) {
	return s.Store.ListDepartments(ctx, limit, offset)
}

func (s *Service) CreateDepartment(ctx context.Context, dep Department) (string, error) {
	return s.Store.CreateDepartment(ctx, dep)
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return s.Store.GetEmployee(ctx, employeeID)
}

func (s *Service) ListEmployees(ctx context.Context, departmentID string, limit, offset int) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, departmentID, limit, offset)
}

// CreateEmployee persists the employee and, when hired into a department,
// applies the active allocation rules scoped to it.
func (s *Service) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	id, err := s.Store.CreateEmployee(ctx, emp)
	if err != nil {
		return "", err
	}

	if emp.DepartmentID != "" && s.Rules != nil {
		s.applyRules(ctx, leave.EmployeeRef{ID: id, DepartmentID: emp.DepartmentID})
	}
	return id, nil
}

// SetEmployeeDepartment reassigns the employee and applies allocation
// rules only when the department actually changed to a non-empty one.
func (s *Service) SetEmployeeDepartment(ctx context.Context, employeeID, departmentID string) error {
	current, err := s.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateEmployeeDepartment(ctx, employeeID, departmentID); err != nil {
		return err
	}

	if departmentID != "" && departmentID != current.DepartmentID && s.Rules != nil {
		s.applyRules(ctx, leave.EmployeeRef{ID: employeeID, DepartmentID: departmentID})
	}
	return nil
}

func (s *Service) applyRules(ctx context.Context, emp leave.EmployeeRef) {
	granted, err := s.Rules.ApplyRulesForEmployee(ctx, emp)
	if err != nil {
		slog.Warn("allocation rule application failed", "employee", emp.ID, "err", err)
		return
	}
	if granted > 0 {
		slog.Info("allocation rules applied", "employee", emp.ID, "granted", granted)
	}
}
