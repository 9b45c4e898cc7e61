package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mensa/internal/models"
	"mensa/internal/schedule"
)

// MenuService serves the student menu listing and the manager's menu
// and availability maintenance.
type MenuService struct {
	repo   Repository
	logger zerolog.Logger
}

func NewMenuService(repo Repository, logger *zerolog.Logger) *MenuService {
	return &MenuService{
		repo:   repo,
		logger: logger.With().Str("component", "menu").Logger(),
	}
}

// MenuEntry is a menu item annotated with its availability for the
// requested date.
type MenuEntry struct {
	models.MenuItem
	Available bool `json:"available"`
}

// MenuForDate lists a tenant's active menu for one delivery date. The
// date string is normalized to the canonical key before the
// availability lookup; items without an explicit available row come
// back with Available=false.
func (s *MenuService) MenuForDate(ctx context.Context, universityID int64, dateStr string) ([]MenuEntry, error) {
	date, err := schedule.ParseDateKey(dateStr)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListMenuItems(ctx, universityID, true)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	availability, err := s.repo.GetAvailability(ctx, universityID, date)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	entries := make([]MenuEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, MenuEntry{MenuItem: item, Available: availability[item.ID]})
	}
	return entries, nil
}

// CreateItem adds a menu item for the manager's tenant.
func (s *MenuService) CreateItem(ctx context.Context, universityID int64, item *models.MenuItem) error {
	if item.Name == "" {
		return validation("item name is required")
	}
	item.UniversityID = universityID
	return s.repo.CreateMenuItem(ctx, item)
}

// UpdateItem updates a menu item, scoped to the manager's tenant.
func (s *MenuService) UpdateItem(ctx context.Context, universityID int64, item *models.MenuItem) error {
	if item.Name == "" {
		return validation("item name is required")
	}
	item.UniversityID = universityID
	return s.repo.UpdateMenuItem(ctx, item)
}

// ListItems returns the full (including inactive) menu for managers.
func (s *MenuService) ListItems(ctx context.Context, universityID int64) ([]models.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, universityID, false)
}

// AddVariant attaches a priced variant to one of the tenant's items.
func (s *MenuService) AddVariant(ctx context.Context, universityID int64, v *models.MenuItemVariant) error {
	if v.Name == "" || v.Price < 0 {
		return validation("variant needs a name and a non-negative price")
	}
	if _, err := s.repo.GetMenuItem(ctx, universityID, v.MenuItemID); err != nil {
		return err
	}
	return s.repo.CreateVariant(ctx, v)
}

// UpdateVariant updates a variant after checking tenant ownership.
// Snapshotted order lines are unaffected by price changes.
func (s *MenuService) UpdateVariant(ctx context.Context, universityID int64, v *models.MenuItemVariant) error {
	if v.Name == "" || v.Price < 0 {
		return validation("variant needs a name and a non-negative price")
	}
	_, item, err := s.repo.GetVariant(ctx, v.ID)
	if err != nil {
		return err
	}
	if item.UniversityID != universityID {
		return ErrWrongTenant
	}
	v.MenuItemID = item.ID
	return s.repo.UpdateVariant(ctx, v)
}

// SetAvailability toggles (item, date) availability. The date key is
// normalized the same way the read paths normalize theirs; managers
// may mark any date, with no window or cutoff restriction.
func (s *MenuService) SetAvailability(ctx context.Context, universityID, itemID int64, dateStr string, available bool) error {
	date, err := schedule.ParseDateKey(dateStr)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetMenuItem(ctx, universityID, itemID); err != nil {
		return err
	}
	if err := s.repo.SetAvailability(ctx, itemID, date, available); err != nil {
		return err
	}
	s.logger.Info().
		Int64("item_id", itemID).
		Str("date", date.Format("2006-01-02")).
		Bool("available", available).
		Msg("availability updated")
	return nil
}
