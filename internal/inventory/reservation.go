// Package inventory guards stock with a check-then-commit reservation that
// runs inside the caller's transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/catalog"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/metrics"
	"github.com/Alturino/checkout/internal/otel"
)

type Mode int

const (
	// Check validates availability without touching stock.
	Check Mode = iota
	// Commit validates and decrements stock.
	Commit
)

func (m Mode) String() string {
	if m == Commit {
		return "commit"
	}
	return "check"
}

func (m Mode) lock() catalog.Lock {
	if m == Commit {
		return catalog.LockUpdate
	}
	return catalog.LockShare
}

type Catalog interface {
	LockProduct(c context.Context, id uuid.UUID, lock catalog.Lock) (domain.Product, error)
	DecrementStock(c context.Context, id uuid.UUID, quantity int32) error
}

type Reservation struct {
	Product  domain.Product
	Quantity int32
}

// Reserve locks the product row, verifies it is active and holds at least
// quantity units, and in Commit mode decrements the stock. The returned
// product carries the price read under the lock.
func Reserve(
	c context.Context,
	cat Catalog,
	productID uuid.UUID,
	quantity int32,
	mode Mode,
) (domain.Product, error) {
	c, span := otel.Tracer.Start(c, "Inventory Reserve")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "Inventory Reserve").
		Str(constants.KeyProductID, productID.String()).
		Int32(constants.KeyQuantity, quantity).
		Str(constants.KeyReservationMode, mode.String()).
		Logger()

	if quantity <= 0 {
		err := inErrors.ErrInvalidQuantity
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}

	logger = logger.With().Str(constants.KeyProcess, "locking product").Logger()
	logger.Trace().Msg("locking product")
	c = logger.WithContext(c)
	product, err := cat.LockProduct(c, productID, mode.lock())
	if err != nil {
		return domain.Product{}, reject(err, mode)
	}
	logger.Trace().Msg("locked product")

	logger = logger.With().Str(constants.KeyProcess, "checking availability").Logger()
	if !product.IsActive {
		err = &inErrors.ProductUnavailableError{ProductID: productID}
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Product{}, reject(err, mode)
	}
	if product.StockQuantity < quantity {
		err = &inErrors.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: product.StockQuantity,
		}
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.Product{}, reject(err, mode)
	}
	logger.Trace().Msg("checked availability")

	if mode == Check {
		return product, nil
	}

	logger = logger.With().Str(constants.KeyProcess, "decrementing stock").Logger()
	logger.Trace().Msg("decrementing stock")
	if err = cat.DecrementStock(c, productID, quantity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, reject(err, mode)
	}
	product.StockQuantity -= quantity
	logger.Trace().Msg("decremented stock")

	return product, nil
}

// ReserveAll reserves every line in ascending product id order so that
// concurrent callers acquire row locks in the same sequence. The first
// failing line aborts with its error.
func ReserveAll(c context.Context, cat Catalog, lines []domain.Line, mode Mode) ([]Reservation, error) {
	sorted := make([]domain.Line, len(lines))
	copy(sorted, lines)
	domain.SortLines(sorted)

	reservations := make([]Reservation, 0, len(sorted))
	for _, line := range sorted {
		product, err := Reserve(c, cat, line.ProductID, line.Quantity, mode)
		if err != nil {
			return nil, fmt.Errorf("failed reserving product=%s with error=%w", line.ProductID, err)
		}
		reservations = append(reservations, Reservation{Product: product, Quantity: line.Quantity})
	}
	return reservations, nil
}

func reject(err error, mode Mode) error {
	if errors.Is(err, inErrors.ErrProductUnavailable) || errors.Is(err, inErrors.ErrInsufficientStock) {
		metrics.StockRejections.WithLabelValues(mode.String(), metrics.Reason(err)).Inc()
	}
	return err
}
