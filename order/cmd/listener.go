package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/infra"
	"github.com/Alturino/checkout/internal/log"
	"github.com/Alturino/checkout/order/internal/service"
)

type EventHandler func(c context.Context, event service.OrderEvent) error

// OrderEventListener consumes order events published after each committed
// order change. Delivery is at most once.
type OrderEventListener struct {
	client redis.UniversalClient
	handle EventHandler
}

func NewOrderEventListener(client redis.UniversalClient, handle EventHandler) *OrderEventListener {
	return &OrderEventListener{client: client, handle: handle}
}

// Listen blocks until c is done. ready, when not nil, is closed once the
// subscription is active.
func (l *OrderEventListener) Listen(c context.Context, ready chan<- struct{}) error {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderEventListener Listen").
		Str("channel", constants.ChannelOrderEvents).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "subscribing").Logger()
	logger.Info().Msg("subscribing")
	sub := l.client.Subscribe(c, constants.ChannelOrderEvents)
	defer sub.Close()
	if _, err := sub.Receive(c); err != nil {
		err = fmt.Errorf("failed subscribing with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("subscribed")
	if ready != nil {
		close(ready)
	}

	messages := sub.Channel()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("stopped listening")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			requestID := uuid.NewString()
			logger := logger.With().
				Str(constants.KeyProcess, "handling event").
				Str(constants.KeyRequestID, requestID).
				Logger()

			event := service.OrderEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				err = fmt.Errorf("failed decoding event with error=%w", err)
				logger.Error().Err(err).Str(constants.KeyBody, msg.Payload).Msg(err.Error())
				continue
			}

			logger = logger.With().
				Str("event", event.Type).
				Str(constants.KeyOrderID, event.OrderID.String()).
				Logger()
			hc := log.AttachRequestIDToContext(logger.WithContext(c), requestID)
			if err := l.handle(hc, event); err != nil {
				err = fmt.Errorf("failed handling event with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				continue
			}
			logger.Trace().Msg("handled event")
		}
	}
}

func logEvent(c context.Context, event service.OrderEvent) error {
	zerolog.Ctx(c).Info().
		Str(constants.KeyUserID, event.UserID.String()).
		Str(constants.KeyOrderStatus, event.OrderStatus.String()).
		Str(constants.KeyPaymentStatus, event.PaymentStatus.String()).
		Bool("terminal", event.Terminal).
		Str("orderTotal", event.OrderTotal.String()).
		Time("occurredAt", event.OccurredAt).
		Msg("received order event")
	return nil
}

// RunOrderEventListener tails order events into the order service log.
func RunOrderEventListener(c context.Context) {
	cfg := config.InitConfig(c, constants.AppOrderService)

	logger := log.Get(filepath.Join("/var/log/", constants.AppOrderService+"-events.log"), cfg.Application).
		With().
		Str(constants.KeyAppName, constants.AppOrderService).
		Str(constants.KeyTag, "main RunOrderEventListener").
		Logger()

	c = logger.WithContext(c)
	client := infra.NewCacheClient(c, cfg.Cache)
	defer client.Close()

	if err := NewOrderEventListener(client, logEvent).Listen(c, nil); err != nil {
		logger.Error().Err(err).Msg(err.Error())
	}
}
