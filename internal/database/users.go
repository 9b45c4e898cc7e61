package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mensa/internal/models"
)

const userColumns = `id, university_id, email, password_hash, name, COALESCE(room, ''), role, approval_status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.UniversityID, &u.Email, &u.PasswordHash, &u.Name, &u.Room, &u.Role, &u.Approval, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. Duplicate emails map to
// ErrDuplicateEmail so the handler can answer 409.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (university_id, email, password_hash, name, room, role, approval_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UniversityID, u.Email, u.PasswordHash, u.Name, u.Room, u.Role, u.Approval,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUserByID returns a user by primary key.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, for login.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsersByApproval returns a tenant's students in the given
// approval state, oldest registration first.
func (db *DB) ListUsersByApproval(ctx context.Context, universityID int64, status models.ApprovalStatus) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE university_id = ? AND role = ? AND approval_status = ?
		ORDER BY created_at`,
		universityID, models.RoleStudent, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by approval: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateApproval sets a student's approval status.
func (db *DB) UpdateApproval(ctx context.Context, userID int64, status models.ApprovalStatus) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users SET approval_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND role = ?`,
		status, userID, models.RoleStudent,
	)
	if err != nil {
		return fmt.Errorf("update approval for user %d: %w", userID, err)
	}
	return requireAffected(res)
}

// UpdatePassword replaces a user's password hash.
func (db *DB) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", userID, err)
	}
	return requireAffected(res)
}
