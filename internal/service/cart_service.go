package service

import (
	"context"

	"github.com/rs/zerolog"

	"mensa/internal/database"
	"mensa/internal/models"
	"mensa/internal/schedule"
)

// CartService manages a student's cart lines per delivery date.
type CartService struct {
	repo   Repository
	logger zerolog.Logger
}

func NewCartService(repo Repository, logger *zerolog.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger.With().Str("component", "cart").Logger(),
	}
}

// Add puts a variant into the user's cart for a delivery date. The
// date is normalized to the canonical key so cart rows and
// availability rows always join on the same value. Window and cutoff
// are enforced at checkout, not here; a cart may hold lines for a
// date that later closes.
func (s *CartService) Add(ctx context.Context, user *models.User, variantID, quantity int64, dateStr string) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, validation("quantity must be at least 1")
	}
	date, err := schedule.ParseDateKey(dateStr)
	if err != nil {
		return nil, err
	}

	variant, item, err := s.repo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if item.UniversityID != user.UniversityID {
		return nil, ErrWrongTenant
	}
	if !variant.IsActive || !item.IsActive {
		return nil, database.ErrVariantInactive
	}

	line := &models.CartItem{
		UserID:       user.ID,
		VariantID:    variantID,
		Quantity:     quantity,
		ScheduledFor: date,
	}
	if err := s.repo.AddCartItem(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// List returns the cart lines for one delivery date.
func (s *CartService) List(ctx context.Context, userID int64, dateStr string) ([]models.CartItem, error) {
	date, err := schedule.ParseDateKey(dateStr)
	if err != nil {
		return nil, err
	}
	return s.repo.GetCartItems(ctx, userID, date)
}

// Remove drops one cart line owned by the user.
func (s *CartService) Remove(ctx context.Context, userID, cartItemID int64) error {
	return s.repo.RemoveCartItem(ctx, userID, cartItemID)
}

// SetQuantity updates a line's quantity; zero removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, cartItemID, quantity int64) error {
	if quantity < 0 {
		return validation("quantity must not be negative")
	}
	return s.repo.UpdateCartQuantity(ctx, userID, cartItemID, quantity)
}
