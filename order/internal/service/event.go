package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	"github.com/Alturino/checkout/internal/money"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusUpdated = "order.status_updated"
)

// OrderEvent is published on constants.ChannelOrderEvents after the
// change it describes has committed. Terminal is set once the order can no
// longer progress.
type OrderEvent struct {
	Type          string               `json:"type"`
	OrderID       uuid.UUID            `json:"order_id"`
	UserID        uuid.UUID            `json:"user_id"`
	OrderStatus   domain.OrderStatus   `json:"order_status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Terminal      bool                 `json:"terminal"`
	OrderTotal    money.Money          `json:"order_total"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewOrderEvent(eventType string, order domain.Order) OrderEvent {
	return OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
		Terminal:      order.OrderStatus.IsTerminal(),
		OrderTotal:    order.OrderTotal,
		OccurredAt:    order.LastUpdated,
	}
}

// publish is best effort. Subscribers may miss events.
func (svc *OrderService) publish(c context.Context, eventType string, order domain.Order) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService publish").
		Str("event", eventType).
		Str(constants.KeyOrderID, order.ID.String()).
		Logger()

	if err := svc.cache.Publish(c, constants.ChannelOrderEvents, NewOrderEvent(eventType, order)); err != nil {
		logger.Warn().Err(err).Msg("failed publishing order event")
		return
	}
	logger.Trace().Msg("published order event")
}
