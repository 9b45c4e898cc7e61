package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetAvailability upserts the availability flag for one (item, date).
// Managers may mark any date, past or future; no window check applies
// on the write path.
func (db *DB) SetAvailability(ctx context.Context, itemID int64, date time.Time, available bool) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO menu_item_availability (menu_item_id, date, is_available)
		VALUES (?, ?, ?)
		ON CONFLICT (menu_item_id, date) DO UPDATE SET is_available = excluded.is_available`,
		itemID, formatDateKey(date), available,
	)
	if err != nil {
		return fmt.Errorf("set availability for item %d: %w", itemID, err)
	}
	return nil
}

// GetAvailability returns the availability map for a tenant's items on
// one date. Items with no row are simply absent: default closed.
func (db *DB) GetAvailability(ctx context.Context, universityID int64, date time.Time) (map[int64]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT a.menu_item_id, a.is_available
		FROM menu_item_availability a
		JOIN menu_items m ON m.id = a.menu_item_id
		WHERE m.university_id = ? AND a.date = ?`,
		universityID, formatDateKey(date),
	)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var itemID int64
		var available bool
		if err := rows.Scan(&itemID, &available); err != nil {
			return nil, err
		}
		out[itemID] = available
	}
	return out, rows.Err()
}

// IsItemAvailable reports whether a single item is explicitly marked
// available on the date. Missing rows count as unavailable.
func (db *DB) IsItemAvailable(ctx context.Context, itemID int64, date time.Time) (bool, error) {
	var available bool
	err := db.QueryRowContext(ctx, `
		SELECT is_available FROM menu_item_availability
		WHERE menu_item_id = ? AND date = ?`,
		itemID, formatDateKey(date),
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check availability for item %d: %w", itemID, err)
	}
	return available, nil
}
