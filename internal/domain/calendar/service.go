// Package calendar keeps meeting entries for validated leave in sync with
// the request lifecycle: one meeting per validated request, deactivated
// when the request is refused.
package calendar

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Meeting struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Title      string    `json:"title"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Active     bool      `json:"active"`
}

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) CreateLeaveMeeting(ctx context.Context, employeeID, title string, start, end time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO calendar_meetings (employee_id, title, start_date, end_date, active)
    VALUES ($1, $2, $3, $4, true)
    RETURNING id
  `, employeeID, title, start, end).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) DeactivateMeeting(ctx context.Context, meetingID string) error {
	if meetingID == "" {
		return nil
	}
	_, err := s.DB.Exec(ctx, "UPDATE calendar_meetings SET active = false WHERE id = $1", meetingID)
	return err
}
