package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 12 * time.Hour

type Service struct {
	DB     *pgxpool.Pool
	Secret string
}

func NewService(db *pgxpool.Pool, secret string) *Service {
	return &Service{DB: db, Secret: secret}
}

func (s *Service) Login(ctx context.Context, email, password string) (string, UserContext, error) {
	var userID, passwordHash, roleName, employeeID string
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.password_hash, u.role_name, COALESCE(u.employee_id::text, '')
    FROM users u
    WHERE u.email = $1
  `, email).Scan(&userID, &passwordHash, &roleName, &employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", UserContext{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", UserContext{}, err
	}

	if err := CheckPassword(passwordHash, password); err != nil {
		return "", UserContext{}, ErrInvalidCredentials
	}

	user := UserContext{UserID: userID, EmployeeID: employeeID, RoleName: roleName}
	token, err := GenerateToken(s.Secret, Claims{
		UserID:     userID,
		EmployeeID: employeeID,
		RoleName:   roleName,
	}, tokenTTL)
	if err != nil {
		return "", UserContext{}, err
	}
	return token, user, nil
}
