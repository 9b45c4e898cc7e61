package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mensa/internal/models"
	"mensa/internal/schedule"
)

// CreateUniversity inserts a new tenant.
func (db *DB) CreateUniversity(ctx context.Context, u *models.University) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO universities (name, code, timezone, order_cutoff_time, max_advance_days, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Code, u.Timezone, u.CutoffTime, u.MaxAdvanceDays, u.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert university: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// GetUniversity returns a tenant by id.
func (db *DB) GetUniversity(ctx context.Context, id int64) (*models.University, error) {
	var u models.University
	err := db.QueryRowContext(ctx, `
		SELECT id, name, code, timezone, order_cutoff_time, max_advance_days, is_active, created_at, updated_at
		FROM universities WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Code, &u.Timezone, &u.CutoffTime, &u.MaxAdvanceDays, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get university %d: %w", id, err)
	}
	return &u, nil
}

// ListUniversities returns all tenants ordered by name.
func (db *DB) ListUniversities(ctx context.Context) ([]models.University, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, code, timezone, order_cutoff_time, max_advance_days, is_active, created_at, updated_at
		FROM universities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer rows.Close()

	var out []models.University
	for rows.Next() {
		var u models.University
		if err := rows.Scan(&u.ID, &u.Name, &u.Code, &u.Timezone, &u.CutoffTime, &u.MaxAdvanceDays, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUniversity updates tenant name, code and active flag.
func (db *DB) UpdateUniversity(ctx context.Context, u *models.University) error {
	res, err := db.ExecContext(ctx, `
		UPDATE universities SET name = ?, code = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		u.Name, u.Code, u.IsActive, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update university %d: %w", u.ID, err)
	}
	return requireAffected(res)
}

// GetTimeConfig loads the scheduled-ordering time config of a tenant.
// Re-read on every request; no caching.
func (db *DB) GetTimeConfig(ctx context.Context, universityID int64) (schedule.TimeConfig, error) {
	var cfg schedule.TimeConfig
	err := db.QueryRowContext(ctx, `
		SELECT timezone, order_cutoff_time, max_advance_days
		FROM universities WHERE id = ?`, universityID,
	).Scan(&cfg.Timezone, &cfg.CutoffTime, &cfg.MaxAdvanceDays)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, ErrNotFound
	}
	if err != nil {
		return cfg, fmt.Errorf("get time config for university %d: %w", universityID, err)
	}
	return cfg, nil
}

// UpdateTimeConfig persists manager settings changes. This is the sole
// producer of the config consumed by the window and cutoff checks.
func (db *DB) UpdateTimeConfig(ctx context.Context, universityID int64, cfg schedule.TimeConfig) error {
	res, err := db.ExecContext(ctx, `
		UPDATE universities
		SET timezone = ?, order_cutoff_time = ?, max_advance_days = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		cfg.Timezone, cfg.CutoffTime, cfg.MaxAdvanceDays, universityID,
	)
	if err != nil {
		return fmt.Errorf("update time config for university %d: %w", universityID, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
