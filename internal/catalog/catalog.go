// Package catalog is the read side of product records plus the two stock
// writes the checkout core is allowed to make.
package catalog

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
	"github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/repository"
)

type Lock int

const (
	LockNone Lock = iota
	LockShare
	LockUpdate
)

func (l Lock) String() string {
	switch l {
	case LockShare:
		return "share"
	case LockUpdate:
		return "update"
	}
	return "none"
}

// Gateway is bound to whatever *repository.Queries it is given; hand it a
// transaction scoped one for the row locks to mean anything.
type Gateway struct {
	queries *repository.Queries
}

func New(queries *repository.Queries) *Gateway {
	return &Gateway{queries: queries}
}

func (g *Gateway) LockProduct(c context.Context, id uuid.UUID, lock Lock) (domain.Product, error) {
	c, span := otel.Tracer.Start(c, "Catalog LockProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "Catalog LockProduct").
		Str(constants.KeyProductID, id.String()).
		Str("lock", lock.String()).
		Logger()

	logger.Trace().Msg("finding product")
	var (
		product repository.Product
		err     error
	)
	switch lock {
	case LockShare:
		product, err = g.queries.FindProductByIdForShare(c, id)
	case LockUpdate:
		product, err = g.queries.FindProductByIdForUpdate(c, id)
	default:
		product, err = g.queries.FindProductById(c, id)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		err = &inErrors.ProductUnavailableError{ProductID: id}
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed finding product with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}
	logger.Trace().Msg("found product")

	return product.Domain(), nil
}

func (g *Gateway) GetProducts(c context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	c, span := otel.Tracer.Start(c, "Catalog GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "Catalog GetProducts").
		Int("productCount", len(ids)).
		Logger()

	logger.Trace().Msg("finding products")
	products, err := g.queries.FindProductsByIds(c, ids)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed finding products with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("found products")

	result := make(map[uuid.UUID]domain.Product, len(products))
	for _, p := range products {
		result[p.ID] = p.Domain()
	}
	return result, nil
}

// DecrementStock subtracts quantity only while enough stock remains.
func (g *Gateway) DecrementStock(c context.Context, id uuid.UUID, quantity int32) error {
	c, span := otel.Tracer.Start(c, "Catalog DecrementStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "Catalog DecrementStock").
		Str(constants.KeyProductID, id.String()).
		Int32(constants.KeyQuantity, quantity).
		Logger()

	logger.Trace().Msg("decrementing stock")
	affected, err := g.queries.DecrementProductQuantity(
		c,
		repository.DecrementProductQuantityParams{ID: id, Quantity: quantity},
	)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed decrementing stock with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if affected == 0 {
		product, err := g.queries.FindProductById(c, id)
		if errors.Is(err, pgx.ErrNoRows) {
			err = &inErrors.ProductUnavailableError{ProductID: id}
			otel.RecordError(err, span)
			logger.Info().Err(err).Msg(err.Error())
			return err
		}
		if err != nil {
			err = inErrors.StorageFailure(fmt.Errorf("failed finding product with error=%w", err))
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		err = &inErrors.InsufficientStockError{
			ProductID: id,
			Requested: quantity,
			Available: product.Quantity,
		}
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("decremented stock")

	return nil
}

func (g *Gateway) IncrementStock(c context.Context, id uuid.UUID, quantity int32) error {
	c, span := otel.Tracer.Start(c, "Catalog IncrementStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "Catalog IncrementStock").
		Str(constants.KeyProductID, id.String()).
		Int32(constants.KeyQuantity, quantity).
		Logger()

	logger.Trace().Msg("incrementing stock")
	affected, err := g.queries.IncrementProductQuantity(
		c,
		repository.IncrementProductQuantityParams{ID: id, Quantity: quantity},
	)
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed incrementing stock with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if affected == 0 {
		logger.Warn().Msg("product no longer exists, skipping restock")
		return nil
	}
	logger.Trace().Msg("incremented stock")

	return nil
}
