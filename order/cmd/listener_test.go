package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/checkout/internal/cache"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	"github.com/Alturino/checkout/internal/money"
	"github.com/Alturino/checkout/internal/testutil"
	"github.com/Alturino/checkout/order/internal/service"
)

func TestOrderEventListener(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	client := testutil.NewRedis(t)
	publisher := cache.NewRedisCache(client, time.Minute)

	received := make(chan service.OrderEvent, 2)
	handle := func(_ context.Context, event service.OrderEvent) error {
		received <- event
		if event.Type == service.EventOrderCancelled {
			return errors.New("handler failed")
		}
		return nil
	}

	c, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- NewOrderEventListener(client, handle).Listen(c, ready) }()

	select {
	case <-ready:
	case <-time.After(10 * time.Second):
		t.Fatal("listener never subscribed")
	}

	order := domain.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		OrderTotal:    money.MustFromString("42.00"),
		OrderStatus:   domain.OrderStatusCancelled,
		PaymentStatus: domain.PaymentStatusCancelled,
		LastUpdated:   time.Now().UTC(),
	}
	require.NoError(t, client.Publish(c, constants.ChannelOrderEvents, "{garbage").Err())
	require.NoError(t, publisher.Publish(c, constants.ChannelOrderEvents, service.NewOrderEvent(service.EventOrderCancelled, order)))
	require.NoError(t, publisher.Publish(c, constants.ChannelOrderEvents, service.NewOrderEvent(service.EventOrderStatusUpdated, order)))

	for _, expected := range []string{service.EventOrderCancelled, service.EventOrderStatusUpdated} {
		select {
		case event := <-received:
			assert.Equal(t, expected, event.Type)
			assert.Equal(t, order.ID, event.OrderID)
			assert.Equal(t, "42.00", event.OrderTotal.String())
			assert.True(t, event.Terminal)
		case <-time.After(10 * time.Second):
			t.Fatalf("never received %s", expected)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("listener did not stop")
	}
}
