package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mensa/internal/events"
	"mensa/internal/metrics"
	"mensa/internal/models"
	"mensa/internal/schedule"
)

// OrderService owns the checkout orchestration and the order
// lifecycle.
type OrderService struct {
	repo   Repository
	bus    EventBus
	logger zerolog.Logger
	now    func() time.Time
}

func NewOrderService(repo Repository, bus EventBus, logger *zerolog.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		bus:    bus,
		logger: logger.With().Str("component", "orders").Logger(),
		now:    time.Now,
	}
}

// Checkout turns the user's cart for the requested delivery date into
// an order: normalize the date, run the advance-window and cutoff
// checks against the tenant's time config, require every cart line to
// be explicitly available for the date, snapshot prices, then persist
// order plus lines and clear the cart atomically.
func (s *OrderService) Checkout(ctx context.Context, user *models.User, dateStr string) (*models.Order, error) {
	start := s.now()
	defer func() { metrics.ObserveCheckout(time.Since(start).Seconds()) }()

	if !user.CanOrder() {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, ErrNotApproved
	}

	date, err := schedule.ParseDateKey(dateStr)
	if err != nil {
		metrics.IncCheckout(metrics.CheckoutBadDate)
		return nil, err
	}

	cfg, err := s.repo.GetTimeConfig(ctx, user.UniversityID)
	if err != nil {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, fmt.Errorf("load time config: %w", err)
	}

	now := s.now()

	within, err := schedule.WithinAdvanceWindow(date, cfg, now)
	if err != nil {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, err
	}
	if !within {
		metrics.IncCheckout(metrics.CheckoutWindow)
		return nil, ErrWindowExceeded
	}

	past, err := schedule.PastCutoff(date, cfg, now)
	if err != nil {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, err
	}
	if past {
		metrics.IncCheckout(metrics.CheckoutCutoff)
		return nil, ErrCutoffPassed
	}

	lines, err := s.repo.GetCartItems(ctx, user.ID, date)
	if err != nil {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		metrics.IncCheckout(metrics.CheckoutEmptyCart)
		return nil, ErrCartEmpty
	}

	// Default closed: a line passes only when its item is explicitly
	// marked available for the date. A single blocked line rejects the
	// whole checkout; no partial order is created.
	order := &models.Order{
		Number:       uuid.NewString(),
		UniversityID: user.UniversityID,
		UserID:       user.ID,
		ScheduledFor: date,
		Status:       models.OrderPending,
	}
	for _, line := range lines {
		available, err := s.repo.IsItemAvailable(ctx, line.ItemID, date)
		if err != nil {
			metrics.IncCheckout(metrics.CheckoutError)
			return nil, fmt.Errorf("check availability: %w", err)
		}
		if !available {
			metrics.IncCheckout(metrics.CheckoutUnavailable)
			return nil, ErrItemUnavailable
		}

		// Price is captured into the order line here; later variant
		// edits must not change historical orders.
		order.Items = append(order.Items, models.OrderItem{
			VariantID:   line.VariantID,
			ItemName:    line.ItemName,
			VariantName: line.ItemLabel,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
		order.Total += line.Price * line.Quantity
	}

	if err := s.repo.CreateOrderWithCartClear(ctx, order); err != nil {
		metrics.IncCheckout(metrics.CheckoutError)
		return nil, fmt.Errorf("persist order: %w", err)
	}

	// Best effort: notification consumers must never fail the checkout.
	if err := s.bus.PublishJSON(events.TypeOrderCreated, order); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("publish order created")
	}

	metrics.IncCheckout(metrics.CheckoutOK)
	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", user.ID).
		Str("scheduled_for", date.Format("2006-01-02")).
		Int64("total", order.Total).
		Msg("order created")

	return order, nil
}

// GetOrder returns one order, enforcing ownership for students and
// tenant scope for managers.
func (s *OrderService) GetOrder(ctx context.Context, user *models.User, orderID int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleStudent && order.UserID != user.ID {
		return nil, ErrWrongTenant
	}
	if user.Role.CanManage() && order.UniversityID != user.UniversityID && !user.Role.IsAdmin() {
		return nil, ErrWrongTenant
	}
	return order, nil
}

// ListOrders returns the user's own order history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.repo.ListUserOrders(ctx, userID)
}

// UpdateStatus applies a manager's lifecycle transition after checking
// it against the allowed state machine.
func (s *OrderService) UpdateStatus(ctx context.Context, manager *models.User, orderID int64, next models.OrderStatus) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UniversityID != manager.UniversityID && !manager.Role.IsAdmin() {
		return nil, ErrWrongTenant
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	if err := s.repo.UpdateOrderStatus(ctx, orderID, order.Status, next); err != nil {
		return nil, err
	}
	prev := order.Status
	order.Status = next

	if err := s.bus.PublishJSON(events.TypeOrderStatus, order); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("publish status change")
	}
	s.logger.Info().
		Int64("order_id", orderID).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("order status updated")
	return order, nil
}

// CancelOwn lets a student cancel their own pending order.
func (s *OrderService) CancelOwn(ctx context.Context, user *models.User, orderID int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID {
		return nil, ErrWrongTenant
	}
	if !order.Status.CanTransitionTo(models.OrderCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, models.OrderCancelled)
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, order.Status, models.OrderCancelled); err != nil {
		return nil, err
	}
	order.Status = models.OrderCancelled
	return order, nil
}

// OrdersForReport returns a tenant's orders for [from, to], both
// normalized date keys.
func (s *OrderService) OrdersForReport(ctx context.Context, universityID int64, fromStr, toStr string) ([]models.Order, error) {
	from, err := schedule.ParseDateKey(fromStr)
	if err != nil {
		return nil, err
	}
	to, err := schedule.ParseDateKey(toStr)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, validation("from date must not be after to date")
	}
	return s.repo.ListOrdersByDateRange(ctx, universityID, from, to)
}
