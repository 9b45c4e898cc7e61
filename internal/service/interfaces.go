package service

import (
	"context"
	"time"

	"mensa/internal/models"
	"mensa/internal/schedule"
)

// Repository is the storage surface the services depend on. The
// sqlite layer in internal/database implements it.
type Repository interface {
	// Tenants.
	CreateUniversity(ctx context.Context, u *models.University) error
	GetUniversity(ctx context.Context, id int64) (*models.University, error)
	ListUniversities(ctx context.Context) ([]models.University, error)
	UpdateUniversity(ctx context.Context, u *models.University) error
	GetTimeConfig(ctx context.Context, universityID int64) (schedule.TimeConfig, error)
	UpdateTimeConfig(ctx context.Context, universityID int64, cfg schedule.TimeConfig) error

	// Users.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByApproval(ctx context.Context, universityID int64, status models.ApprovalStatus) ([]models.User, error)
	UpdateApproval(ctx context.Context, userID int64, status models.ApprovalStatus) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	// Menu.
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, universityID, itemID int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, universityID int64, activeOnly bool) ([]models.MenuItem, error)
	CreateVariant(ctx context.Context, v *models.MenuItemVariant) error
	UpdateVariant(ctx context.Context, v *models.MenuItemVariant) error
	GetVariant(ctx context.Context, variantID int64) (*models.MenuItemVariant, *models.MenuItem, error)

	// Availability.
	SetAvailability(ctx context.Context, itemID int64, date time.Time, available bool) error
	GetAvailability(ctx context.Context, universityID int64, date time.Time) (map[int64]bool, error)
	IsItemAvailable(ctx context.Context, itemID int64, date time.Time) (bool, error)

	// Cart.
	AddCartItem(ctx context.Context, item *models.CartItem) error
	GetCartItems(ctx context.Context, userID int64, date time.Time) ([]models.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, cartItemID int64) error
	UpdateCartQuantity(ctx context.Context, userID, cartItemID, quantity int64) error

	// Orders.
	CreateOrderWithCartClear(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrdersByDateRange(ctx context.Context, universityID int64, from, to time.Time) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) error

	// Password resets.
	CreatePasswordReset(ctx context.Context, r *models.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error)
}

// EventBus publishes domain events for downstream consumers
// (notifications, sheets sync). Failures are the publisher's to log,
// never to propagate into the request.
type EventBus interface {
	PublishJSON(eventType string, payload interface{}) error
}
