package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mensa/internal/models"
)

// CreateMenuItem inserts a menu item.
func (db *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO menu_items (university_id, name, description, category, is_active, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.UniversityID, item.Name, item.Description, item.Category, item.IsActive, item.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	return err
}

// UpdateMenuItem updates menu item fields.
func (db *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := db.ExecContext(ctx, `
		UPDATE menu_items
		SET name = ?, description = ?, category = ?, is_active = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND university_id = ?`,
		item.Name, item.Description, item.Category, item.IsActive, item.SortOrder, item.ID, item.UniversityID,
	)
	if err != nil {
		return fmt.Errorf("update menu item %d: %w", item.ID, err)
	}
	return requireAffected(res)
}

// GetMenuItem returns one item with its variants, scoped to a tenant.
func (db *DB) GetMenuItem(ctx context.Context, universityID, itemID int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := db.QueryRowContext(ctx, `
		SELECT id, university_id, name, COALESCE(description, ''), COALESCE(category, ''), is_active, sort_order, created_at, updated_at
		FROM menu_items WHERE id = ? AND university_id = ?`,
		itemID, universityID,
	).Scan(&item.ID, &item.UniversityID, &item.Name, &item.Description, &item.Category, &item.IsActive, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item %d: %w", itemID, err)
	}

	item.Variants, err = db.listVariants(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMenuItems returns a tenant's menu items with variants, in sort
// order. When activeOnly is set, inactive items and variants are
// filtered out.
func (db *DB) ListMenuItems(ctx context.Context, universityID int64, activeOnly bool) ([]models.MenuItem, error) {
	query := `
		SELECT id, university_id, name, COALESCE(description, ''), COALESCE(category, ''), is_active, sort_order, created_at, updated_at
		FROM menu_items WHERE university_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := db.QueryContext(ctx, query, universityID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.UniversityID, &item.Name, &item.Description, &item.Category, &item.IsActive, &item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		variants, err := db.listVariants(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		if activeOnly {
			active := variants[:0]
			for _, v := range variants {
				if v.IsActive {
					active = append(active, v)
				}
			}
			variants = active
		}
		items[i].Variants = variants
	}
	return items, nil
}

func (db *DB) listVariants(ctx context.Context, itemID int64) ([]models.MenuItemVariant, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, menu_item_id, name, price, is_active
		FROM menu_item_variants WHERE menu_item_id = ? ORDER BY price`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list variants for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var out []models.MenuItemVariant
	for rows.Next() {
		var v models.MenuItemVariant
		if err := rows.Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Price, &v.IsActive); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateVariant inserts a priced variant for a menu item.
func (db *DB) CreateVariant(ctx context.Context, v *models.MenuItemVariant) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO menu_item_variants (menu_item_id, name, price, is_active)
		VALUES (?, ?, ?, ?)`,
		v.MenuItemID, v.Name, v.Price, v.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert variant: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

// UpdateVariant updates variant name, price and active flag. Existing
// order lines keep their snapshotted price.
func (db *DB) UpdateVariant(ctx context.Context, v *models.MenuItemVariant) error {
	res, err := db.ExecContext(ctx, `
		UPDATE menu_item_variants SET name = ?, price = ?, is_active = ? WHERE id = ?`,
		v.Name, v.Price, v.IsActive, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update variant %d: %w", v.ID, err)
	}
	return requireAffected(res)
}

// GetVariant returns a variant joined with its menu item, used to
// resolve cart lines.
func (db *DB) GetVariant(ctx context.Context, variantID int64) (*models.MenuItemVariant, *models.MenuItem, error) {
	var v models.MenuItemVariant
	var item models.MenuItem
	err := db.QueryRowContext(ctx, `
		SELECT v.id, v.menu_item_id, v.name, v.price, v.is_active,
		       m.id, m.university_id, m.name, m.is_active
		FROM menu_item_variants v
		JOIN menu_items m ON m.id = v.menu_item_id
		WHERE v.id = ?`, variantID,
	).Scan(&v.ID, &v.MenuItemID, &v.Name, &v.Price, &v.IsActive,
		&item.ID, &item.UniversityID, &item.Name, &item.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get variant %d: %w", variantID, err)
	}
	return &v, &item, nil
}
