package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/checkout/internal/cache"
	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/repository"
	"github.com/Alturino/checkout/internal/testutil"
)

var orderConfig = config.Order{HistoryDefaultLimit: 20, HistoryMaxLimit: 100}

func line(productID uuid.UUID, quantity int32) domain.Line {
	return domain.Line{ProductID: productID, Quantity: quantity}
}

func TestOrderService(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	pool := testutil.NewPostgres(t)
	queries := repository.New(pool)
	memory := newMemoryCache()
	svc := NewOrderService(pool, queries, memory, orderConfig)
	c := context.Background()

	t.Run("create reserves stock and snapshots prices", func(t *testing.T) {
		userID := uuid.New()
		shippingID := uuid.New()
		a := testutil.SeedProduct(t, pool, "19.99", 10, true)
		b := testutil.SeedProduct(t, pool, "5.01", 10, true)

		order, err := svc.CreateOrder(c, userID, []domain.Line{line(a, 2), line(b, 3)}, &shippingID, "")
		require.NoError(t, err)

		assert.Equal(t, userID, order.UserID)
		assert.Equal(t, domain.OrderStatusPending, order.OrderStatus)
		assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
		assert.Equal(t, shippingID, *order.ShippingID)
		assert.Equal(t, "55.01", order.OrderTotal.String())
		require.Len(t, order.Items, 2)
		assert.True(t, domain.OrderTotal(order.Items).Equal(order.OrderTotal))

		assert.Equal(t, int32(8), testutil.Stock(t, pool, a))
		assert.Equal(t, int32(7), testutil.Stock(t, pool, b))
		assert.Equal(t, []string{EventOrderCreated}, memory.eventTypes(order.ID.String()))

		testutil.SetPrice(t, pool, a, "99.00")
		require.NoError(t, memory.Delete(c, cache.Key(cache.OrderItemsKeyPrefix, order.ID.String())))
		stored, err := svc.GetById(c, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "55.01", stored.OrderTotal.String())
	})

	t.Run("duplicate lines are merged", func(t *testing.T) {
		productID := testutil.SeedProduct(t, pool, "2.50", 10, true)

		order, err := svc.CreateOrder(c, uuid.New(), []domain.Line{line(productID, 1), line(productID, 2)}, nil, "")
		require.NoError(t, err)

		require.Len(t, order.Items, 1)
		assert.Equal(t, int32(3), order.Items[0].Quantity)
		assert.Equal(t, "7.50", order.OrderTotal.String())
		assert.Equal(t, int32(7), testutil.Stock(t, pool, productID))
	})

	t.Run("a short line aborts the whole order", func(t *testing.T) {
		userID := uuid.New()
		plenty := testutil.SeedProduct(t, pool, "1.00", 5, true)
		scarce := testutil.SeedProduct(t, pool, "1.00", 1, true)

		_, err := svc.CreateOrder(c, userID, []domain.Line{line(plenty, 2), line(scarce, 2)}, nil, "")
		var stockErr *inErrors.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, scarce, stockErr.ProductID)
		assert.Equal(t, int32(2), stockErr.Requested)
		assert.Equal(t, int32(1), stockErr.Available)

		assert.Equal(t, int32(5), testutil.Stock(t, pool, plenty))
		assert.Equal(t, int32(1), testutil.Stock(t, pool, scarce))
		history, err := svc.GetHistory(c, userID, 0, nil)
		require.NoError(t, err)
		assert.Empty(t, history.Orders)
	})

	t.Run("rejects empty, invalid and unavailable lines", func(t *testing.T) {
		inactive := testutil.SeedProduct(t, pool, "1.00", 5, false)

		_, err := svc.CreateOrder(c, uuid.New(), nil, nil, "")
		assert.ErrorIs(t, err, inErrors.ErrEmptyOrder)

		_, err = svc.CreateOrder(c, uuid.New(), []domain.Line{line(inactive, 0)}, nil, "")
		assert.ErrorIs(t, err, inErrors.ErrInvalidQuantity)

		huge := []domain.Line{line(inactive, math.MaxInt32), line(inactive, math.MaxInt32), line(inactive, math.MaxInt32)}
		_, err = svc.CreateOrder(c, uuid.New(), huge, nil, "")
		assert.ErrorIs(t, err, inErrors.ErrInvalidQuantity)

		_, err = svc.CreateOrder(c, uuid.New(), []domain.Line{line(inactive, 1)}, nil, "")
		var unavailable *inErrors.ProductUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, inactive, unavailable.ProductID)

		_, err = svc.CreateOrder(c, uuid.New(), []domain.Line{line(uuid.New(), 1)}, nil, "")
		assert.ErrorIs(t, err, inErrors.ErrProductUnavailable)
		assert.Equal(t, int32(5), testutil.Stock(t, pool, inactive))
	})

	t.Run("concurrent orders never oversell", func(t *testing.T) {
		productID := testutil.SeedProduct(t, pool, "3.00", 10, true)

		const buyers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.CreateOrder(c, uuid.New(), []domain.Line{line(productID, 1)}, nil, "")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, inErrors.ErrInsufficientStock):
					rejected++
				default:
					t.Errorf("unexpected error: %s", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, succeeded)
		assert.Equal(t, 10, rejected)
		assert.Equal(t, int32(0), testutil.Stock(t, pool, productID))
	})

	t.Run("opposite line order does not deadlock", func(t *testing.T) {
		a := testutil.SeedProduct(t, pool, "1.00", 100, true)
		b := testutil.SeedProduct(t, pool, "1.00", 100, true)

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			lines := []domain.Line{line(a, 1), line(b, 1)}
			if i%2 == 1 {
				lines = []domain.Line{line(b, 1), line(a, 1)}
			}
			wg.Add(1)
			go func(i int, lines []domain.Line) {
				defer wg.Done()
				_, errs[i] = svc.CreateOrder(c, uuid.New(), lines, nil, "")
			}(i, lines)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int32(90), testutil.Stock(t, pool, a))
		assert.Equal(t, int32(90), testutil.Stock(t, pool, b))
	})

	t.Run("customer reads only own orders", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "1.00", 5, true)
		order, err := svc.CreateOrder(c, userID, []domain.Line{line(productID, 1)}, nil, "")
		require.NoError(t, err)

		found, err := svc.GetCustomerOrder(c, order.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, found.ID)

		_, err = svc.GetCustomerOrder(c, order.ID, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrUnauthorized)

		_, err = svc.GetCustomerOrder(c, uuid.New(), userID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})

	t.Run("cancel follows the state machine", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "4.00", 10, true)
		place := func() domain.Order {
			order, err := svc.CreateOrder(c, userID, []domain.Line{line(productID, 1)}, nil, "")
			require.NoError(t, err)
			return order
		}

		pending := place()
		_, err := svc.Cancel(c, pending.ID, uuid.New())
		assert.ErrorIs(t, err, inErrors.ErrUnauthorized)

		cancelled, err := svc.Cancel(c, pending.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.OrderStatus)
		assert.Equal(t, domain.PaymentStatusCancelled, cancelled.PaymentStatus)
		assert.True(t, cancelled.LastUpdated.After(pending.LastUpdated))
		assert.Equal(t, []string{EventOrderCreated, EventOrderCancelled}, memory.eventTypes(pending.ID.String()))

		reread, err := svc.GetById(c, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, reread.OrderStatus)

		_, err = svc.Cancel(c, pending.ID, userID)
		var transitionErr *inErrors.InvalidStateTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, "CANCELLED", transitionErr.From)

		processing := place()
		_, err = svc.UpdateStatus(c, processing.ID, domain.OrderStatusProcessing, nil)
		require.NoError(t, err)
		_, err = svc.Cancel(c, processing.ID, userID)
		assert.NoError(t, err)

		for _, status := range []domain.OrderStatus{
			domain.OrderStatusShipped,
			domain.OrderStatusDelivered,
			domain.OrderStatusRefunded,
		} {
			order := place()
			_, err = svc.UpdateStatus(c, order.ID, status, nil)
			require.NoError(t, err)
			_, err = svc.Cancel(c, order.ID, userID)
			assert.ErrorIs(t, err, inErrors.ErrInvalidStateTransition, status)
		}

		_, err = svc.Cancel(c, uuid.New(), userID)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)

		assert.Equal(t, int32(5), testutil.Stock(t, pool, productID))
	})

	t.Run("cancel restocks when enabled", func(t *testing.T) {
		restocking := NewOrderService(pool, queries, newMemoryCache(), config.Order{RestockOnCancel: true})
		userID := uuid.New()
		a := testutil.SeedProduct(t, pool, "1.00", 5, true)
		b := testutil.SeedProduct(t, pool, "1.00", 5, true)

		order, err := restocking.CreateOrder(c, userID, []domain.Line{line(a, 2), line(b, 3)}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int32(3), testutil.Stock(t, pool, a))

		_, err = restocking.Cancel(c, order.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, int32(5), testutil.Stock(t, pool, a))
		assert.Equal(t, int32(5), testutil.Stock(t, pool, b))
	})

	t.Run("status update is unconditional", func(t *testing.T) {
		productID := testutil.SeedProduct(t, pool, "1.00", 5, true)
		order, err := svc.CreateOrder(c, uuid.New(), []domain.Line{line(productID, 1)}, nil, "")
		require.NoError(t, err)

		completed := domain.PaymentStatusCompleted
		updated, err := svc.UpdateStatus(c, order.ID, domain.OrderStatusDelivered, &completed)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, updated.OrderStatus)
		assert.Equal(t, domain.PaymentStatusCompleted, updated.PaymentStatus)

		updated, err = svc.UpdateStatus(c, order.ID, domain.OrderStatusPending, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, updated.OrderStatus)
		assert.Equal(t, domain.PaymentStatusCompleted, updated.PaymentStatus)
		reread, err := svc.GetById(c, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, reread.OrderStatus)

		_, err = svc.UpdateStatus(c, order.ID, domain.OrderStatus("LOST"), nil)
		assert.ErrorIs(t, err, inErrors.ErrInvalidStatus)

		_, err = svc.UpdateStatus(c, uuid.New(), domain.OrderStatusShipped, nil)
		assert.ErrorIs(t, err, inErrors.ErrOrderNotFound)
	})

	t.Run("reads never serve a stale status", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "1.00", 5, true)
		lines := []domain.Line{line(productID, 1)}
		order, err := svc.CreateOrder(c, userID, lines, nil, "stale-check")
		require.NoError(t, err)
		itemsKey := cache.Key(cache.OrderItemsKeyPrefix, order.ID.String())
		require.True(t, memory.has(itemsKey))

		_, err = svc.GetById(c, order.ID)
		require.NoError(t, err)
		_, err = pool.Exec(
			c,
			`UPDATE orders SET order_status = 'CANCELLED', payment_status = 'CANCELLED', last_updated = now() WHERE id = $1`,
			order.ID,
		)
		require.NoError(t, err)

		reads := map[string]func() (domain.Order, error){
			"by id":    func() (domain.Order, error) { return svc.GetById(c, order.ID) },
			"customer": func() (domain.Order, error) { return svc.GetCustomerOrder(c, order.ID, userID) },
			"replay":   func() (domain.Order, error) { return svc.CreateOrder(c, userID, lines, nil, "stale-check") },
		}
		for name, read := range reads {
			found, err := read()
			require.NoError(t, err, name)
			assert.Equal(t, order.ID, found.ID, name)
			assert.Equal(t, domain.OrderStatusCancelled, found.OrderStatus, name)
			assert.Equal(t, domain.PaymentStatusCancelled, found.PaymentStatus, name)
			assert.Len(t, found.Items, 1, name)
		}
		assert.True(t, memory.has(itemsKey))
		assert.Equal(t, int32(4), testutil.Stock(t, pool, productID))
	})

	t.Run("idempotency key replays the first order", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "1.00", 5, true)
		lines := []domain.Line{line(productID, 2)}

		first, err := svc.CreateOrder(c, userID, lines, nil, "checkout-1")
		require.NoError(t, err)
		second, err := svc.CreateOrder(c, userID, lines, nil, "checkout-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int32(3), testutil.Stock(t, pool, productID))

		other, err := svc.CreateOrder(c, uuid.New(), lines, nil, "checkout-1")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
		assert.Equal(t, int32(1), testutil.Stock(t, pool, productID))
	})

	t.Run("failed attempt releases the idempotency key", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "1.00", 1, true)

		_, err := svc.CreateOrder(c, userID, []domain.Line{line(productID, 2)}, nil, "retry-me")
		require.ErrorIs(t, err, inErrors.ErrInsufficientStock)
		assert.False(t, memory.has(IdempotencyCacheKey(userID, "retry-me")))

		order, err := svc.CreateOrder(c, userID, []domain.Line{line(productID, 1)}, nil, "retry-me")
		require.NoError(t, err)
		assert.Equal(t, int32(1), order.Items[0].Quantity)
	})

	t.Run("in flight idempotency key is a duplicate", func(t *testing.T) {
		userID := uuid.New()
		productID := testutil.SeedProduct(t, pool, "1.00", 5, true)
		require.NoError(t, memory.Set(c, IdempotencyCacheKey(userID, "busy"), idempotencyRecord{}, 0))

		_, err := svc.CreateOrder(c, userID, []domain.Line{line(productID, 1)}, nil, "busy")
		assert.ErrorIs(t, err, inErrors.ErrDuplicateOrder)
		assert.Equal(t, int32(5), testutil.Stock(t, pool, productID))
	})
}
