package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mensa/internal/models"
)

// CreateOrderWithCartClear persists an order with its lines and clears
// the user's cart rows for that delivery date in one transaction.
// Either everything lands or nothing does.
func (db *DB) CreateOrderWithCartClear(ctx context.Context, order *models.Order) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (number, university_id, user_id, scheduled_for, status, total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.Number, order.UniversityID, order.UserID, formatDateKey(order.ScheduledFor), order.Status, order.Total,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if order.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		for i := range order.Items {
			line := &order.Items[i]
			line.OrderID = order.ID
			res, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, variant_id, item_name, variant_name, price, quantity)
				VALUES (?, ?, ?, ?, ?, ?)`,
				line.OrderID, line.VariantID, line.ItemName, line.VariantName, line.Price, line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
			if line.ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = ? AND scheduled_for = ?`,
			order.UserID, formatDateKey(order.ScheduledFor),
		)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
}

const orderColumns = `o.id, o.number, o.university_id, o.user_id, o.scheduled_for, o.status, o.total, o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...any) error }, extra ...any) (*models.Order, error) {
	var o models.Order
	var scheduled string
	dest := []any{&o.ID, &o.Number, &o.UniversityID, &o.UserID, &scheduled, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if o.ScheduledFor, err = scanDateKey(scheduled); err != nil {
		return nil, fmt.Errorf("scan order date: %w", err)
	}
	return &o, nil
}

// GetOrder returns one order with its lines.
func (db *DB) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if o.Items, err = db.listOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (db *DB) listOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, item_name, variant_name, price, quantity
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []models.OrderItem
	for rows.Next() {
		var i models.OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.VariantID, &i.ItemName, &i.VariantName, &i.Price, &i.Quantity); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// ListUserOrders returns a user's order history, newest first.
func (db *DB) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.user_id = ? ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = db.listOrderItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListOrdersByDateRange returns a tenant's orders scheduled inside
// [from, to] inclusive, with user name and room joined for reports.
func (db *DB) ListOrdersByDateRange(ctx context.Context, universityID int64, from, to time.Time) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+orderColumns+`, u.name, COALESCE(u.room, '')
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.university_id = ? AND o.scheduled_for >= ? AND o.scheduled_for <= ?
		ORDER BY o.scheduled_for, o.id`,
		universityID, formatDateKey(from), formatDateKey(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders by range: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var name, room string
		o, err := scanOrder(rows, &name, &room)
		if err != nil {
			return nil, err
		}
		o.UserName, o.UserRoom = name, room
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = db.listOrderItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateOrderStatus applies a lifecycle transition, guarding the
// current status inside the statement so concurrent updates cannot
// skip states.
func (db *DB) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		to, orderID, from,
	)
	if err != nil {
		return fmt.Errorf("update order %d status: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}
