package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) HasCoveringAllocation(ctx context.Context, employeeID, leaveTypeID string, from, to time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_allocations
    WHERE employee_id = $1
      AND leave_type_id = $2
      AND state = $3
      AND date_from <= $4
      AND date_to >= $5
  `, employeeID, leaveTypeID, StateValidate, from, to).Scan(&count)
	return count > 0, err
}

func (s *Store) HasValidatedAllocation(ctx context.Context, employeeID, leaveTypeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_allocations
    WHERE employee_id = $1 AND leave_type_id = $2 AND state = $3
  `, employeeID, leaveTypeID, StateValidate).Scan(&count)
	return count > 0, err
}

func (s *Store) HasOpenAllocationOn(ctx context.Context, employeeID, leaveTypeID string, day time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_allocations
    WHERE employee_id = $1
      AND leave_type_id = $2
      AND state = ANY($3)
      AND date_from <= $4
      AND date_to >= $4
  `, employeeID, leaveTypeID, []string{StateDraft, StateConfirm, StateValidate}, day).Scan(&count)
	return count > 0, err
}

func (s *Store) HasAutoAllocation(ctx context.Context, employeeID, leaveTypeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM leave_allocations
    WHERE employee_id = $1 AND leave_type_id = $2 AND auto_generated
  `, employeeID, leaveTypeID).Scan(&count)
	return count > 0, err
}

// InsertAutoAllocation is the trusted bulk insert used by the rule engine:
// a single transactional INSERT that skips the validated request path. The
// partial unique index on auto-generated allocations makes concurrent
// duplicates surface as a no-op conflict instead of a second row.
func (s *Store) InsertAutoAllocation(ctx context.Context, alloc *LeaveAllocation) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx, `
    INSERT INTO leave_allocations
      (name, employee_id, leave_type_id, days, date_from, date_to, state, auto_generated)
    VALUES ($1,$2,$3,$4,$5,$6,$7,true)
    ON CONFLICT (employee_id, leave_type_id) WHERE auto_generated DO NOTHING
  `, alloc.Name, alloc.EmployeeID, alloc.LeaveTypeID, alloc.Days, alloc.DateFrom, alloc.DateTo, alloc.State)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ActiveRulesForDepartment(ctx context.Context, departmentID string) ([]AllocationRule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.name, r.leave_type_id, r.days, r.active, r.created_at
    FROM allocation_rules r
    JOIN allocation_rule_departments rd ON rd.rule_id = r.id
    WHERE r.active AND rd.department_id = $1
    ORDER BY r.created_at
  `, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []AllocationRule
	for rows.Next() {
		var rule AllocationRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.LeaveTypeID, &rule.Days, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rules {
		departments, err := s.ruleDepartments(ctx, rules[i].ID)
		if err != nil {
			return nil, err
		}
		rules[i].DepartmentIDs = departments
	}
	return rules, nil
}

func (s *Store) ruleDepartments(ctx context.Context, ruleID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT department_id::text FROM allocation_rule_departments WHERE rule_id = $1", ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ActiveEmployeesInDepartments(ctx context.Context, departmentIDs []string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text
    FROM employees
    WHERE status = 'active' AND department_id::text = ANY($1)
    ORDER BY created_at
  `, departmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) FindOpenAllocation(ctx context.Context, employeeID, leaveTypeID string) (string, bool, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id
    FROM leave_allocations
    WHERE employee_id = $1 AND leave_type_id = $2 AND state = ANY($3)
    ORDER BY created_at
    LIMIT 1
  `, employeeID, leaveTypeID, openAllocationStates).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) AddAllocationDays(ctx context.Context, allocationID string, days float64) error {
	_, err := s.DB.Exec(ctx, "UPDATE leave_allocations SET days = days + $1 WHERE id = $2", days, allocationID)
	return err
}

func (s *Store) CreateAllocation(ctx context.Context, alloc *LeaveAllocation) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_allocations
      (name, employee_id, leave_type_id, days, date_from, date_to, state, auto_generated)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, alloc.Name, alloc.EmployeeID, alloc.LeaveTypeID, alloc.Days, alloc.DateFrom, alloc.DateTo,
		alloc.State, alloc.AutoGenerated).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListAllocations(ctx context.Context, employeeID string) ([]LeaveAllocation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, employee_id, leave_type_id, days, date_from, date_to, state, auto_generated, created_at
    FROM leave_allocations
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []LeaveAllocation
	for rows.Next() {
		var alloc LeaveAllocation
		if err := rows.Scan(&alloc.ID, &alloc.Name, &alloc.EmployeeID, &alloc.LeaveTypeID, &alloc.Days,
			&alloc.DateFrom, &alloc.DateTo, &alloc.State, &alloc.AutoGenerated, &alloc.CreatedAt); err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, rows.Err()
}

func (s *Store) FindActiveRule(ctx context.Context, leaveTypeID string, departmentIDs []string) (string, bool, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT DISTINCT r.id
    FROM allocation_rules r
    JOIN allocation_rule_departments rd ON rd.rule_id = r.id
    WHERE r.active AND r.leave_type_id = $1 AND rd.department_id::text = ANY($2)
    LIMIT 1
  `, leaveTypeID, departmentIDs).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) AddRuleDepartments(ctx context.Context, ruleID string, departmentIDs []string) error {
	for _, departmentID := range departmentIDs {
		if _, err := s.DB.Exec(ctx, `
      INSERT INTO allocation_rule_departments (rule_id, department_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, ruleID, departmentID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateRule(ctx context.Context, rule *AllocationRule) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO allocation_rules (name, leave_type_id, days, active)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, rule.Name, rule.LeaveTypeID, rule.Days, rule.Active).Scan(&id); err != nil {
		_ = tx.Rollback(ctx)
		return "", err
	}

	for _, departmentID := range rule.DepartmentIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO allocation_rule_departments (rule_id, department_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, id, departmentID); err != nil {
			_ = tx.Rollback(ctx)
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListRules(ctx context.Context) ([]AllocationRule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, leave_type_id, days, active, created_at
    FROM allocation_rules
    ORDER BY created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []AllocationRule
	for rows.Next() {
		var rule AllocationRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.LeaveTypeID, &rule.Days, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rules {
		departments, err := s.ruleDepartments(ctx, rules[i].ID)
		if err != nil {
			return nil, err
		}
		rules[i].DepartmentIDs = departments
	}
	return rules, nil
}

func (s *Store) DeactivateRule(ctx context.Context, ruleID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE allocation_rules SET active = false WHERE id = $1", ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
