package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"timeoff/internal/domain/auth"
	"timeoff/internal/domain/leave"
	"timeoff/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureLeaveTypes(ctx, pool); err != nil {
		return err
	}
	if cfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	return nil
}

type seedLeaveType struct {
	name               string
	code               string
	classification     string
	requiresAllocation bool
	validation         string
	createMeeting      bool
}

var defaultLeaveTypes = []seedLeaveType{
	{name: "Sick Leave", code: "SL", classification: leave.ClassificationSick, requiresAllocation: false, validation: leave.ValidationSingle, createMeeting: false},
	{name: "Paid Time Off", code: "PTO", classification: leave.ClassificationPaid, requiresAllocation: true, validation: leave.ValidationBoth, createMeeting: true},
	{name: "Unpaid Leave", code: "UL", classification: leave.ClassificationOther, requiresAllocation: false, validation: leave.ValidationSingle, createMeeting: false},
}

func ensureLeaveTypes(ctx context.Context, pool *pgxpool.Pool) error {
	for _, lt := range defaultLeaveTypes {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_types (name, code, classification, requires_allocation, validation, create_meeting)
      VALUES ($1,$2,$3,$4,$5,$6)
      ON CONFLICT (code) DO NOTHING
    `, lt.name, lt.code, lt.classification, lt.requiresAllocation, lt.validation, lt.createMeeting)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, role_name)
    VALUES ($1, $2, $3)
  `, email, hash, auth.RoleHR)
	return err
}
