package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mensa/internal/models"
)

// CreatePasswordReset stores a hashed reset token. Only the hash is
// ever persisted.
func (db *DB) CreatePasswordReset(ctx context.Context, r *models.PasswordReset) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO password_resets (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)`,
		r.UserID, r.TokenHash, r.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// ConsumePasswordReset looks up an unused, unexpired reset by token
// hash and marks it used in the same transaction.
func (db *DB) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	var r models.PasswordReset
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT id, user_id, token_hash, expires_at, created_at
			FROM password_resets
			WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?`,
			tokenHash, now,
		).Scan(&r.ID, &r.UserID, &r.TokenHash, &r.ExpiresAt, &r.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find password reset: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE password_resets SET used_at = ? WHERE id = ?`, now, r.ID); err != nil {
			return fmt.Errorf("mark reset used: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
