package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListDepartments(ctx context.Context, limit, offset int) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, created_at
    FROM departments
    ORDER BY name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name, &dep.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, dep)
	}
	return departments, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, dep Department) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name)
    VALUES ($1)
    RETURNING id
  `, dep.Name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT e.id,
           COALESCE(u.id::text, ''),
           e.first_name, e.last_name, e.email,
           COALESCE(e.department_id::text, ''),
           e.start_date, e.status, e.created_at, e.updated_at
    FROM employees e
    LEFT JOIN users u ON u.employee_id = e.id
    WHERE e.id = $1
  `, employeeID)

	var emp Employee
	err := row.Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.DepartmentID, &emp.StartDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, departmentID string, limit, offset int) ([]Employee, error) {
	query := `
    SELECT id, '', first_name, last_name, email,
           COALESCE(department_id::text, ''),
           start_date, status, created_at, updated_at
    FROM employees
  `
	args := []any{}
	if departmentID != "" {
		query += " WHERE department_id::text = $1 ORDER BY last_name, first_name LIMIT $2 OFFSET $3"
		args = append(args, departmentID, limit, offset)
	} else {
		query += " ORDER BY last_name, first_name LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email,
			&emp.DepartmentID, &emp.StartDate, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	status := emp.Status
	if status == "" {
		status = StatusActive
	}
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (first_name, last_name, email, department_id, start_date, status)
    VALUES ($1,$2,$3, NULLIF($4, '')::uuid, $5, $6)
    RETURNING id
  `, emp.FirstName, emp.LastName, emp.Email, emp.DepartmentID, emp.StartDate, status).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployeeDepartment(ctx context.Context, employeeID, departmentID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET department_id = NULLIF($1, '')::uuid, updated_at = now()
    WHERE id = $2
  `, departmentID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
