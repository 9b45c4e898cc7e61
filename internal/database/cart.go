package database

import (
	"context"
	"fmt"
	"time"

	"mensa/internal/models"
)

// AddCartItem inserts a cart line, or bumps the quantity when the
// same variant is already in the cart for that date.
func (db *DB) AddCartItem(ctx context.Context, item *models.CartItem) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, variant_id, quantity, scheduled_for)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, variant_id, scheduled_for)
		DO UPDATE SET quantity = quantity + excluded.quantity`,
		item.UserID, item.VariantID, item.Quantity, formatDateKey(item.ScheduledFor),
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	// LastInsertId is meaningless on the conflict path (no row was
	// inserted), so read the line's real id back.
	err = db.QueryRowContext(ctx,
		`SELECT id FROM cart_items WHERE user_id = ? AND variant_id = ? AND scheduled_for = ?`,
		item.UserID, item.VariantID, formatDateKey(item.ScheduledFor),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("add cart item id: %w", err)
	}
	return nil
}

// GetCartItems returns the user's cart lines for one delivery date,
// joined with current variant and item data.
func (db *DB) GetCartItems(ctx context.Context, userID int64, date time.Time) ([]models.CartItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.variant_id, c.quantity, c.scheduled_for, c.created_at,
		       m.id, m.name, v.name, v.price
		FROM cart_items c
		JOIN menu_item_variants v ON v.id = c.variant_id
		JOIN menu_items m ON m.id = v.menu_item_id
		WHERE c.user_id = ? AND c.scheduled_for = ?
		ORDER BY c.id`,
		userID, formatDateKey(date),
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var out []models.CartItem
	for rows.Next() {
		var c models.CartItem
		var scheduled string
		if err := rows.Scan(&c.ID, &c.UserID, &c.VariantID, &c.Quantity, &scheduled, &c.CreatedAt,
			&c.ItemID, &c.ItemName, &c.ItemLabel, &c.Price); err != nil {
			return nil, err
		}
		if c.ScheduledFor, err = scanDateKey(scheduled); err != nil {
			return nil, fmt.Errorf("scan cart date: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RemoveCartItem deletes one cart line owned by the user.
func (db *DB) RemoveCartItem(ctx context.Context, userID, cartItemID int64) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND user_id = ?`, cartItemID, userID)
	if err != nil {
		return fmt.Errorf("remove cart item %d: %w", cartItemID, err)
	}
	return requireAffected(res)
}

// UpdateCartQuantity sets the quantity of one cart line owned by the
// user. Quantity zero removes the line.
func (db *DB) UpdateCartQuantity(ctx context.Context, userID, cartItemID, quantity int64) error {
	if quantity <= 0 {
		return db.RemoveCartItem(ctx, userID, cartItemID)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?`,
		quantity, cartItemID, userID)
	if err != nil {
		return fmt.Errorf("update cart item %d: %w", cartItemID, err)
	}
	return requireAffected(res)
}
