package core

import "time"

type Employee struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId,omitempty"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	DepartmentID string     `json:"departmentId,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
