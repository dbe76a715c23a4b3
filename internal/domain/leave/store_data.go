package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetRequest(ctx context.Context, requestID string) (*LeaveRequest, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, leave_type_id, date_from, date_to, days, state,
           COALESCE(first_approver_id::text, ''),
           COALESCE(second_approver_id::text, ''),
           COALESCE(refuse_reason, ''),
           COALESCE(meeting_id::text, ''),
           created_at
    FROM leave_requests
    WHERE id = $1
  `, requestID)

	var req LeaveRequest
	err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.DateFrom, &req.DateTo,
		&req.Days, &req.State, &req.FirstApproverID, &req.SecondApproverID,
		&req.RefuseReason, &req.MeetingID, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) GetLeaveType(ctx context.Context, leaveTypeID string) (*LeaveType, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, code, classification, requires_allocation, validation, create_meeting, created_at
    FROM leave_types
    WHERE id = $1
  `, leaveTypeID)

	var lt LeaveType
	err := row.Scan(&lt.ID, &lt.Name, &lt.Code, &lt.Classification, &lt.RequiresAllocation,
		&lt.Validation, &lt.CreateMeeting, &lt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lt, nil
}

func (s *Store) EmployeeUserID(ctx context.Context, employeeID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(u.id::text, '')
    FROM employees e
    LEFT JOIN users u ON u.employee_id = e.id
    WHERE e.id = $1
  `, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, err
}

func (s *Store) CreateRequest(ctx context.Context, req *LeaveRequest) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type_id, date_from, date_to, days, state)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, req.EmployeeID, req.LeaveTypeID, req.DateFrom, req.DateTo, req.Days, req.State).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateRequestState(ctx context.Context, requestID, state string) error {
	_, err := s.DB.Exec(ctx, "UPDATE leave_requests SET state = $1 WHERE id = $2", state, requestID)
	return err
}

func (s *Store) MarkApproved(ctx context.Context, requestID, state, approverField, approverID string) error {
	column, err := approverColumn(approverField)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, fmt.Sprintf(`
    UPDATE leave_requests SET state = $1, %s = $2 WHERE id = $3
  `, column), state, approverID, requestID)
	return err
}

func (s *Store) MarkRefused(ctx context.Context, requestID, approverField, approverID, reason string) error {
	column, err := approverColumn(approverField)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, fmt.Sprintf(`
    UPDATE leave_requests SET state = $1, %s = $2, refuse_reason = $3 WHERE id = $4
  `, column), StateRefuse, approverID, reason, requestID)
	return err
}

func (s *Store) SetRequestMeeting(ctx context.Context, requestID, meetingID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE leave_requests SET meeting_id = $1 WHERE id = $2", meetingID, requestID)
	return err
}

// approverColumn whitelists the two approver columns; the field name is
// never interpolated from caller input directly.
func approverColumn(field string) (string, error) {
	switch field {
	case "first_approver_id", "second_approver_id":
		return field, nil
	default:
		return "", fmt.Errorf("unknown approver field %q", field)
	}
}

func (s *Store) SumRequestDays(ctx context.Context, employeeID, leaveTypeID string, states []string, from, to time.Time, excludeRequestID string) (float64, error) {
	var total float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = $1
      AND leave_type_id = $2
      AND state = ANY($3)
      AND date_from >= $4
      AND date_to <= $5
      AND ($6 = '' OR id::text <> $6)
  `, employeeID, leaveTypeID, states, from, to, excludeRequestID).Scan(&total)
	return total, err
}

func (s *Store) ListRequests(ctx context.Context, employeeID string, limit, offset int) ([]LeaveRequest, error) {
	query := `
    SELECT id, employee_id, leave_type_id, date_from, date_to, days, state,
           COALESCE(first_approver_id::text, ''),
           COALESCE(second_approver_id::text, ''),
           COALESCE(refuse_reason, ''),
           COALESCE(meeting_id::text, ''),
           created_at
    FROM leave_requests
  `
	args := []any{}
	if employeeID != "" {
		query += " WHERE employee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, employeeID, limit, offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []LeaveRequest
	for rows.Next() {
		var req LeaveRequest
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.DateFrom, &req.DateTo,
			&req.Days, &req.State, &req.FirstApproverID, &req.SecondApproverID,
			&req.RefuseReason, &req.MeetingID, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *Store) ListTypes(ctx context.Context) ([]LeaveType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, classification, requires_allocation, validation, create_meeting, created_at
    FROM leave_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.Code, &lt.Classification, &lt.RequiresAllocation,
			&lt.Validation, &lt.CreateMeeting, &lt.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, nil
}

func (s *Store) CreateType(ctx context.Context, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, code, classification, requires_allocation, validation, create_meeting)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, payload.Name, payload.Code, payload.Classification, payload.RequiresAllocation,
		payload.Validation, payload.CreateMeeting).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
