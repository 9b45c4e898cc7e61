// Package notify delivers best-effort notifications. Nothing in here
// may fail a request: errors stop at the log.
package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"mensa/internal/events"
	"mensa/internal/models"
)

// Notifier sends order and account notifications.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogNotifier writes notifications to the log. It stands in when no
// mail transport is configured and doubles as the delivery record in
// development.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) OrderCreated(_ context.Context, order *models.Order) error {
	n.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Str("scheduled_for", order.ScheduledFor.Format("2006-01-02")).
		Int64("total", order.Total).
		Msg("order confirmation")
	return nil
}

func (n *LogNotifier) OrderStatusChanged(_ context.Context, order *models.Order) error {
	n.logger.Info().
		Int64("order_id", order.ID).
		Str("status", string(order.Status)).
		Msg("order status notification")
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, _ string) error {
	// The token itself never goes to the log.
	n.logger.Info().Str("email", email).Msg("password reset mail")
	return nil
}

// Subscribe wires the notifier to the event bus. Handler errors are
// logged and swallowed; a failed notification never reaches the
// publisher.
func Subscribe(bus *events.EventBus, n Notifier, logger *zerolog.Logger) {
	log := logger.With().Str("component", "notify").Logger()

	handle := func(fn func(context.Context, *models.Order) error) events.EventHandler {
		return func(event events.Event) error {
			var order models.Order
			if err := json.Unmarshal(event.Payload, &order); err != nil {
				log.Error().Err(err).Str("type", event.Type).Msg("decode event payload")
				return nil
			}
			if err := fn(context.Background(), &order); err != nil {
				log.Error().Err(err).Str("type", event.Type).Msg("send notification")
			}
			return nil
		}
	}

	bus.Subscribe(events.TypeOrderCreated, handle(n.OrderCreated))
	bus.Subscribe(events.TypeOrderStatus, handle(n.OrderStatusChanged))
}
