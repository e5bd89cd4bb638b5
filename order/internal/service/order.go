package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/cache"
	"github.com/Alturino/checkout/internal/catalog"
	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/inventory"
	"github.com/Alturino/checkout/internal/metrics"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/repository"
	"github.com/Alturino/checkout/order/internal/otel"
)

type Pool interface {
	repository.DBTX
	repository.TxBeginner
}

type OrderService struct {
	pool    Pool
	queries *repository.Queries
	cache   cache.Cache
	cfg     config.Order
}

func NewOrderService(
	pool Pool,
	queries *repository.Queries,
	cache cache.Cache,
	cfg config.Order,
) *OrderService {
	return &OrderService{pool: pool, queries: queries, cache: cache, cfg: cfg}
}

// CreateOrder reserves every line in commit mode and persists a PENDING
// order in the same transaction. Either all lines are reserved and the
// order exists, or nothing changes. A non empty idempotencyKey makes
// retries of the same request return the first order.
func (svc *OrderService) CreateOrder(
	c context.Context,
	userID uuid.UUID,
	lines []domain.Line,
	shippingID *uuid.UUID,
	idempotencyKey string,
) (order domain.Order, err error) {
	c, span := otel.Tracer.Start(c, "OrderService CreateOrder")
	defer span.End()
	defer func() {
		if err != nil {
			metrics.OrderFailures.WithLabelValues(metrics.Reason(err)).Inc()
			return
		}
		metrics.OrdersCreated.Inc()
	}()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService CreateOrder").
		Str(constants.KeyUserID, userID.String()).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "merging order lines").Logger()
	logger.Trace().Msg("merging order lines")
	merged, err := domain.MergeLines(lines)
	if err != nil {
		err = fmt.Errorf("failed merging order lines with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	logger.Trace().Msg("merged order lines")

	if idempotencyKey != "" {
		c = logger.WithContext(c)
		var claim idempotencyClaim
		claim, err = svc.claimIdempotencyKey(c, userID, idempotencyKey)
		if err != nil {
			inOtel.RecordError(err, span)
			logger.Info().Err(err).Msg(err.Error())
			return domain.Order{}, err
		}
		if claim.replayedID != nil {
			logger = logger.With().Str(constants.KeyOrderID, claim.replayedID.String()).Logger()
			logger.Info().Msg("replaying order")
			order, err = svc.GetById(logger.WithContext(c), *claim.replayedID)
			if err != nil {
				err = fmt.Errorf("failed replaying order with error=%w", err)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return domain.Order{}, err
			}
			logger.Info().Msg("replayed order")
			return order, nil
		}
		defer func() { svc.settleIdempotencyKey(c, claim.key, order, err) }()
	}

	logger = logger.With().Str(constants.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	c = logger.WithContext(c)
	orderID := uuid.New()
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		reservations, err := inventory.ReserveAll(c, catalog.New(q), merged, inventory.Commit)
		if err != nil {
			return err
		}

		items := make([]domain.OrderItem, 0, len(reservations))
		for _, r := range reservations {
			items = append(items, domain.NewOrderItem(orderID, r.Product.ID, r.Quantity, r.Product.Price))
		}

		inserted, err := q.InsertOrder(c, repository.InsertOrderParams{
			ID:            orderID,
			UserID:        userID,
			OrderTotal:    repository.NumericFromMoney(domain.OrderTotal(items)),
			OrderStatus:   domain.OrderStatusPending.String(),
			PaymentStatus: domain.PaymentStatusPending.String(),
			ShippingID:    shippingID,
		})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed inserting order with error=%w", err))
		}

		if _, err = q.InsertOrderItems(c, repository.NewInsertOrderItemsParams(items)); err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed inserting order items with error=%w", err))
		}

		insertedItems, err := q.FindOrderItemsByOrderIds(c, []uuid.UUID{orderID})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed finding order items with error=%w", err))
		}
		order = inserted.Domain(insertedItems)
		return nil
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed inserting order with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	logger = logger.With().Str(constants.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	c = logger.WithContext(c)
	svc.cacheOrderItems(c, order.ID, order.Items)
	svc.publish(c, EventOrderCreated, order)

	return order, nil
}

// GetById returns any order regardless of owner. The order row is always
// read from the database; only its items come from the cache.
func (svc *OrderService) GetById(c context.Context, orderID uuid.UUID) (domain.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService GetById").
		Str(constants.KeyOrderID, orderID.String()).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "finding order").Logger()
	logger.Trace().Msg("finding order")
	row, err := svc.queries.FindOrderById(c, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = inErrors.ErrOrderNotFound
	}
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed finding order with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	logger.Trace().Msg("found order")

	logger = logger.With().Str(constants.KeyProcess, "finding order items").Logger()
	c = logger.WithContext(c)
	items, err := svc.orderItems(c, orderID)
	if err != nil {
		err = fmt.Errorf("failed finding order items with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}

	return row.WithItems(items), nil
}

// orderItems reads through the cache. Items never change once inserted.
func (svc *OrderService) orderItems(c context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	key := cache.Key(cache.OrderItemsKeyPrefix, orderID.String())
	logger := zerolog.Ctx(c).With().Str(constants.KeyCacheKey, key).Logger()

	logger.Trace().Msg("finding order items in cache")
	items := []domain.OrderItem{}
	found, err := svc.cache.Get(c, key, &items)
	if err != nil {
		logger.Warn().Err(err).Msg("failed finding order items in cache")
	}
	if found {
		logger.Trace().Msg("found order items in cache")
		return items, nil
	}

	rows, err := svc.queries.FindOrderItemsByOrderIds(c, []uuid.UUID{orderID})
	if err != nil {
		return nil, inErrors.StorageFailure(err)
	}
	items = make([]domain.OrderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Domain())
	}
	logger.Trace().Msg("found order items")

	svc.cacheOrderItems(c, orderID, items)
	return items, nil
}

// GetCustomerOrder returns the order only to its owner.
func (svc *OrderService) GetCustomerOrder(c context.Context, orderID uuid.UUID, userID uuid.UUID) (domain.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetCustomerOrder")
	defer span.End()

	order, err := svc.GetById(c, orderID)
	if err != nil {
		inOtel.RecordError(err, span)
		return domain.Order{}, err
	}
	if order.UserID != userID {
		err = fmt.Errorf("order=%s with error=%w", orderID, inErrors.ErrUnauthorized)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Info().Err(err).Str(constants.KeyUserID, userID.String()).Msg(err.Error())
		return domain.Order{}, err
	}
	return order, nil
}

// Cancel moves a PENDING or PROCESSING order owned by userID to CANCELLED.
// Reserved stock goes back to the catalog only when restocking is enabled.
func (svc *OrderService) Cancel(c context.Context, orderID uuid.UUID, userID uuid.UUID) (order domain.Order, err error) {
	c, span := otel.Tracer.Start(c, "OrderService Cancel")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService Cancel").
		Str(constants.KeyOrderID, orderID.String()).
		Str(constants.KeyUserID, userID.String()).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "cancelling order").Logger()
	logger.Info().Msg("cancelling order")
	c = logger.WithContext(c)
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		locked, err := lockOrder(c, q, orderID)
		if err != nil {
			return err
		}
		if locked.UserID != userID {
			return inErrors.ErrUnauthorized
		}
		status := domain.OrderStatus(locked.OrderStatus)
		if !status.Cancellable() {
			return &inErrors.InvalidStateTransitionError{
				OrderID: orderID,
				From:    status.String(),
				To:      domain.OrderStatusCancelled.String(),
			}
		}

		updated, err := q.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
			ID:            orderID,
			OrderStatus:   domain.OrderStatusCancelled.String(),
			PaymentStatus: domain.PaymentStatusCancelled.String(),
		})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed updating order status with error=%w", err))
		}

		items, err := q.FindOrderItemsByOrderIds(c, []uuid.UUID{orderID})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed finding order items with error=%w", err))
		}
		order = updated.Domain(items)

		if !svc.cfg.RestockOnCancel {
			return nil
		}
		return restock(c, catalog.New(q), order.Items)
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed cancelling order with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	logger.Info().Msg("cancelled order")

	metrics.OrderTransitions.WithLabelValues(order.OrderStatus.String()).Inc()
	svc.publish(c, EventOrderCancelled, order)

	return order, nil
}

// UpdateStatus overwrites the order and payment status without checking
// the transition. A nil paymentStatus keeps the current one.
func (svc *OrderService) UpdateStatus(
	c context.Context,
	orderID uuid.UUID,
	orderStatus domain.OrderStatus,
	paymentStatus *domain.PaymentStatus,
) (order domain.Order, err error) {
	c, span := otel.Tracer.Start(c, "OrderService UpdateStatus")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService UpdateStatus").
		Str(constants.KeyOrderID, orderID.String()).
		Str(constants.KeyOrderStatus, orderStatus.String()).
		Logger()

	if _, err = domain.ParseOrderStatus(orderStatus.String()); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	if paymentStatus != nil {
		if _, err = domain.ParsePaymentStatus(paymentStatus.String()); err != nil {
			inOtel.RecordError(err, span)
			logger.Info().Err(err).Msg(err.Error())
			return domain.Order{}, err
		}
		logger = logger.With().Str(constants.KeyPaymentStatus, paymentStatus.String()).Logger()
	}

	logger = logger.With().Str(constants.KeyProcess, "updating order status").Logger()
	logger.Info().Msg("updating order status")
	c = logger.WithContext(c)
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		locked, err := lockOrder(c, q, orderID)
		if err != nil {
			return err
		}

		payment := locked.PaymentStatus
		if paymentStatus != nil {
			payment = paymentStatus.String()
		}
		updated, err := q.UpdateOrderStatus(c, repository.UpdateOrderStatusParams{
			ID:            orderID,
			OrderStatus:   orderStatus.String(),
			PaymentStatus: payment,
		})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed updating order status with error=%w", err))
		}

		items, err := q.FindOrderItemsByOrderIds(c, []uuid.UUID{orderID})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed finding order items with error=%w", err))
		}
		order = updated.Domain(items)
		return nil
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed updating order status with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Order{}, err
	}
	logger.Info().Msg("updated order status")

	metrics.OrderTransitions.WithLabelValues(order.OrderStatus.String()).Inc()
	svc.publish(c, EventOrderStatusUpdated, order)

	return order, nil
}

func lockOrder(c context.Context, q *repository.Queries, orderID uuid.UUID) (repository.Order, error) {
	order, err := q.FindOrderByIdForUpdate(c, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Order{}, inErrors.ErrOrderNotFound
	}
	if err != nil {
		return repository.Order{}, inErrors.StorageFailure(fmt.Errorf("failed locking order with error=%w", err))
	}
	return order, nil
}

// restock returns each item's quantity in ascending product id order, the
// same order reservations lock rows in.
func restock(c context.Context, cat *catalog.Gateway, items []domain.OrderItem) error {
	lines := make([]domain.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	domain.SortLines(lines)
	for _, line := range lines {
		if err := cat.IncrementStock(c, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (svc *OrderService) cacheOrderItems(c context.Context, orderID uuid.UUID, items []domain.OrderItem) {
	key := cache.Key(cache.OrderItemsKeyPrefix, orderID.String())
	if err := svc.cache.Set(c, key, items, svc.cfg.CacheTTL); err != nil {
		zerolog.Ctx(c).Warn().Err(err).Str(constants.KeyCacheKey, key).Msg("failed caching order items")
	}
}
