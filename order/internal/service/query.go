package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/repository"
	"github.com/Alturino/checkout/order/internal/otel"
)

func (svc *OrderService) historyLimit(limit int) int {
	if limit <= 0 {
		limit = svc.cfg.HistoryDefaultLimit
	}
	if svc.cfg.HistoryMaxLimit > 0 && limit > svc.cfg.HistoryMaxLimit {
		limit = svc.cfg.HistoryMaxLimit
	}
	if limit <= 0 {
		limit = domain.DefaultPageLimit
	}
	return limit
}

// GetHistory pages through userID's orders newest first. cursor is the id
// of the last order of the previous page and must belong to userID.
func (svc *OrderService) GetHistory(
	c context.Context,
	userID uuid.UUID,
	limit int,
	cursor *uuid.UUID,
) (domain.OrderHistory, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetHistory")
	defer span.End()

	limit = svc.historyLimit(limit)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService GetHistory").
		Str(constants.KeyUserID, userID.String()).
		Int("limit", limit).
		Logger()

	var (
		orders []repository.Order
		err    error
	)
	if cursor == nil {
		logger = logger.With().Str(constants.KeyProcess, "finding order history").Logger()
		logger.Trace().Msg("finding order history")
		orders, err = svc.queries.FindOrderHistory(c, repository.FindOrderHistoryParams{
			UserID: userID,
			Limit:  int32(limit + 1),
		})
	} else {
		logger = logger.With().
			Str(constants.KeyProcess, "finding order history after cursor").
			Str("cursor", cursor.String()).
			Logger()
		logger.Trace().Msg("finding order history after cursor")

		var last repository.Order
		last, err = svc.queries.FindOrderById(c, *cursor)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			err = inErrors.ErrOrderNotFound
		case err != nil:
			err = inErrors.StorageFailure(err)
		case last.UserID != userID:
			err = inErrors.ErrUnauthorized
		default:
			orders, err = svc.queries.FindOrderHistoryAfter(c, repository.FindOrderHistoryAfterParams{
				UserID:          userID,
				CursorOrderDate: last.OrderDate,
				CursorID:        last.ID,
				Limit:           int32(limit + 1),
			})
		}
	}
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed finding order history with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.OrderHistory{}, err
	}

	history := domain.OrderHistory{}
	if len(orders) > limit {
		orders = orders[:limit]
		next := orders[limit-1].ID
		history.NextCursor = &next
	}

	c = logger.WithContext(c)
	history.Orders, err = withItems(c, svc.queries, orders)
	if err != nil {
		err = fmt.Errorf("failed finding order history with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.OrderHistory{}, err
	}
	logger.Trace().Int("count", len(history.Orders)).Msg("found order history")

	return history, nil
}

// GetAllOrders lists orders across all users matching filter.
func (svc *OrderService) GetAllOrders(c context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetAllOrders")
	defer span.End()

	filter = filter.Normalize()
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService GetAllOrders").
		Any(constants.KeyFilter, filter).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "finding orders").Logger()
	logger.Trace().Msg("finding orders")
	orders, err := svc.queries.FindOrders(c, filter)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed finding orders with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.OrderPage{}, err
	}
	logger.Trace().Msg("found orders")

	logger = logger.With().Str(constants.KeyProcess, "counting orders").Logger()
	logger.Trace().Msg("counting orders")
	total, err := svc.queries.CountOrders(c, filter)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed counting orders with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.OrderPage{}, err
	}
	logger.Trace().Int64("total", total).Msg("counted orders")

	c = logger.WithContext(c)
	result, err := withItems(c, svc.queries, orders)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.OrderPage{}, err
	}

	return domain.OrderPage{Orders: result, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// GetSummary aggregates every order matching filter, ignoring paging.
func (svc *OrderService) GetSummary(c context.Context, filter domain.OrderFilter) (domain.OrderSummary, error) {
	c, span := otel.Tracer.Start(c, "OrderService GetSummary")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService GetSummary").
		Any(constants.KeyFilter, filter).
		Str(constants.KeyProcess, "summarizing orders").
		Logger()

	logger.Trace().Msg("summarizing orders")
	rows, err := svc.queries.SummarizeOrders(c, filter)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed summarizing orders with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.OrderSummary{}, err
	}

	tallies := make([]domain.StatusTally, 0, len(rows))
	for _, row := range rows {
		tallies = append(tallies, row.Domain())
	}
	summary := domain.Summarize(tallies)
	logger.Trace().Int64("totalOrders", summary.TotalOrders).Msg("summarized orders")

	return summary, nil
}

func withItems(c context.Context, q *repository.Queries, orders []repository.Order) ([]domain.Order, error) {
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := q.FindOrderItemsByOrderIds(c, ids)
	if err != nil {
		return nil, inErrors.StorageFailure(fmt.Errorf("failed finding order items with error=%w", err))
	}
	return repository.OrdersDomain(orders, items), nil
}
