package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/cart/internal/otel"
	"github.com/Alturino/checkout/internal/catalog"
	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/inventory"
	"github.com/Alturino/checkout/internal/metrics"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/repository"
	"github.com/Alturino/checkout/order/pkg/request"
	"github.com/Alturino/checkout/order/pkg/response"
)

type OrderCreator interface {
	CreateOrder(c context.Context, param request.CreateOrder, idempotencyKey string) (response.Order, error)
}

type Pool interface {
	repository.DBTX
	repository.TxBeginner
}

type CartService struct {
	pool    Pool
	queries *repository.Queries
	orders  OrderCreator
	cfg     config.Cart
}

func NewCartService(
	pool Pool,
	queries *repository.Queries,
	orders OrderCreator,
	cfg config.Cart,
) *CartService {
	return &CartService{pool: pool, queries: queries, orders: orders, cfg: cfg}
}

// GetOrCreate returns the caller's cart, creating an empty one on first
// access. Concurrent first accesses converge on the same row.
func (svc *CartService) GetOrCreate(c context.Context, userID uuid.UUID) (domain.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetOrCreate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService GetOrCreate").
		Str(constants.KeyUserID, userID.String()).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "inserting cart if not exists").Logger()
	logger.Trace().Msg("inserting cart if not exists")
	if err := svc.queries.InsertCartIfNotExists(c, userID); err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed inserting cart with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}, err
	}
	logger.Trace().Msg("inserted cart if not exists")

	logger = logger.With().Str(constants.KeyProcess, "finding cart").Logger()
	logger.Trace().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := loadCart(c, svc.queries, userID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}, err
	}
	logger.Trace().Str(constants.KeyCartID, cart.ID.String()).Msg("found cart")

	return cart, nil
}

// AddItem merges quantity into the caller's cart line for productID, or
// opens a new line, after checking the catalog can supply the combined
// quantity. Stock is never decremented here.
func (svc *CartService) AddItem(
	c context.Context,
	userID uuid.UUID,
	productID uuid.UUID,
	quantity int32,
) (item domain.CartItem, err error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()
	defer func() { metrics.CartMutations.WithLabelValues("add_item", metrics.Outcome(err)).Inc() }()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService AddItem").
		Str(constants.KeyUserID, userID.String()).
		Str(constants.KeyProductID, productID.String()).
		Int32(constants.KeyQuantity, quantity).
		Logger()

	if quantity <= 0 {
		err = inErrors.ErrInvalidQuantity
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.CartItem{}, err
	}

	if err = svc.queries.InsertCartIfNotExists(c, userID); err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed inserting cart with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.CartItem{}, err
	}

	c = logger.WithContext(c)
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		logger := logger.With().Str(constants.KeyProcess, "locking cart").Logger()
		logger.Trace().Msg("locking cart")
		cart, err := q.FindCartByUserIdForUpdate(c, userID)
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed locking cart with error=%w", err))
		}
		logger.Trace().Str(constants.KeyCartID, cart.ID.String()).Msg("locked cart")

		logger = logger.With().Str(constants.KeyProcess, "finding existing cart item").Logger()
		existing, found := domain.CartItem{}, false
		row, err := q.FindCartItemByProductId(
			c,
			repository.FindCartItemByProductIdParams{CartID: cart.ID, ProductID: productID},
		)
		switch {
		case err == nil:
			existing, found = row.Domain(), true
		case !errors.Is(err, pgx.ErrNoRows):
			return inErrors.StorageFailure(fmt.Errorf("failed finding cart item with error=%w", err))
		}
		logger.Trace().Bool("found", found).Msg("found existing cart item")

		if existing.Quantity > math.MaxInt32-quantity {
			return inErrors.ErrInvalidQuantity
		}
		desired := existing.Quantity + quantity

		logger = logger.With().Str(constants.KeyProcess, "checking stock").Logger()
		logger.Trace().Int32("desired", desired).Msg("checking stock")
		product, err := inventory.Reserve(c, catalog.New(q), productID, desired, inventory.Check)
		if err != nil {
			var stockErr *inErrors.InsufficientStockError
			if errors.As(err, &stockErr) {
				return &inErrors.InsufficientStockError{
					ProductID: productID,
					Requested: quantity,
					Available: max(stockErr.Available-existing.Quantity, 0),
				}
			}
			return err
		}
		logger.Trace().Msg("checked stock")

		if found {
			logger = logger.With().Str(constants.KeyProcess, "merging cart item").Logger()
			logger.Trace().Msg("merging cart item")
			merged := existing.WithQuantity(desired).Repriced(product.Price)
			updated, err := q.UpdateCartItem(c, repository.UpdateCartItemParams{
				ID:        merged.ID,
				CartID:    cart.ID,
				Quantity:  merged.Quantity,
				UnitPrice: repository.NumericFromMoney(merged.UnitPrice),
				Subtotal:  repository.NumericFromMoney(merged.Subtotal),
			})
			if err != nil {
				return inErrors.StorageFailure(fmt.Errorf("failed updating cart item with error=%w", err))
			}
			item = updated.Domain()
			logger.Trace().Msg("merged cart item")
		} else {
			logger = logger.With().Str(constants.KeyProcess, "inserting cart item").Logger()
			logger.Trace().Msg("inserting cart item")
			created := domain.NewCartItem(cart.ID, productID, quantity, product.Price)
			inserted, err := q.InsertCartItem(c, repository.InsertCartItemParams{
				ID:        created.ID,
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  created.Quantity,
				UnitPrice: repository.NumericFromMoney(created.UnitPrice),
				Subtotal:  repository.NumericFromMoney(created.Subtotal),
			})
			if err != nil {
				return inErrors.StorageFailure(fmt.Errorf("failed inserting cart item with error=%w", err))
			}
			item = inserted.Domain()
			logger.Trace().Msg("inserted cart item")
		}

		return touch(c, q, cart.ID)
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed adding cart item with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.CartItem{}, err
	}
	logger.Info().Str(constants.KeyCartItemID, item.ID.String()).Msg("added cart item")

	return item, nil
}

// UpdateItemQuantity sets the absolute quantity of one of the caller's cart
// lines, keeping its snapshot price. Zero removes the line and returns it
// with a zero quantity.
func (svc *CartService) UpdateItemQuantity(
	c context.Context,
	userID uuid.UUID,
	cartItemID uuid.UUID,
	quantity int32,
) (item domain.CartItem, err error) {
	if quantity == 0 {
		if err = svc.RemoveItem(c, userID, cartItemID); err != nil {
			return domain.CartItem{}, err
		}
		return domain.CartItem{ID: cartItemID}, nil
	}

	c, span := otel.Tracer.Start(c, "CartService UpdateItemQuantity")
	defer span.End()
	defer func() { metrics.CartMutations.WithLabelValues("update_item", metrics.Outcome(err)).Inc() }()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService UpdateItemQuantity").
		Str(constants.KeyUserID, userID.String()).
		Str(constants.KeyCartItemID, cartItemID.String()).
		Int32(constants.KeyQuantity, quantity).
		Logger()

	if quantity < 0 {
		err = inErrors.ErrInvalidQuantity
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.CartItem{}, err
	}

	c = logger.WithContext(c)
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		cart, err := lockOwnCart(c, q, userID)
		if err != nil {
			return err
		}

		logger := logger.With().Str(constants.KeyProcess, "finding cart item").Logger()
		logger.Trace().Msg("finding cart item")
		row, err := q.FindCartItemById(c, repository.FindCartItemByIdParams{ID: cartItemID, CartID: cart.ID})
		if errors.Is(err, pgx.ErrNoRows) {
			return inErrors.ErrCartItemNotFound
		}
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed finding cart item with error=%w", err))
		}
		current := row.Domain()
		logger.Trace().Msg("found cart item")

		logger = logger.With().Str(constants.KeyProcess, "checking stock").Logger()
		logger.Trace().Msg("checking stock")
		if _, err = inventory.Reserve(c, catalog.New(q), current.ProductID, quantity, inventory.Check); err != nil {
			return err
		}
		logger.Trace().Msg("checked stock")

		logger = logger.With().Str(constants.KeyProcess, "updating cart item").Logger()
		logger.Trace().Msg("updating cart item")
		next := current.WithQuantity(quantity)
		updated, err := q.UpdateCartItem(c, repository.UpdateCartItemParams{
			ID:        next.ID,
			CartID:    cart.ID,
			Quantity:  next.Quantity,
			UnitPrice: repository.NumericFromMoney(next.UnitPrice),
			Subtotal:  repository.NumericFromMoney(next.Subtotal),
		})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed updating cart item with error=%w", err))
		}
		item = updated.Domain()
		logger.Trace().Msg("updated cart item")

		return touch(c, q, cart.ID)
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed updating cart item with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return domain.CartItem{}, err
	}
	logger.Info().Msg("updated cart item")

	return item, nil
}

func (svc *CartService) RemoveItem(c context.Context, userID uuid.UUID, cartItemID uuid.UUID) (err error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()
	defer func() { metrics.CartMutations.WithLabelValues("remove_item", metrics.Outcome(err)).Inc() }()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService RemoveItem").
		Str(constants.KeyUserID, userID.String()).
		Str(constants.KeyCartItemID, cartItemID.String()).
		Logger()

	c = logger.WithContext(c)
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		cart, err := lockOwnCart(c, q, userID)
		if err != nil {
			return err
		}

		logger := logger.With().Str(constants.KeyProcess, "deleting cart item").Logger()
		logger.Trace().Msg("deleting cart item")
		deleted, err := q.DeleteCartItem(c, repository.DeleteCartItemParams{ID: cartItemID, CartID: cart.ID})
		if err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed deleting cart item with error=%w", err))
		}
		if deleted == 0 {
			return inErrors.ErrCartItemNotFound
		}
		logger.Trace().Msg("deleted cart item")

		return touch(c, q, cart.ID)
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed removing cart item with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("removed cart item")

	return nil
}

func (svc *CartService) GetSummary(c context.Context, userID uuid.UUID) (domain.CartSummary, error) {
	c, span := otel.Tracer.Start(c, "CartService GetSummary")
	defer span.End()

	cart, err := svc.GetOrCreate(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		return domain.CartSummary{}, err
	}
	return cart.Summary(), nil
}

// Validate reports whether every line of the caller's cart could be ordered
// right now. It reads without locking and never mutates.
func (svc *CartService) Validate(c context.Context, userID uuid.UUID) (bool, error) {
	c, span := otel.Tracer.Start(c, "CartService Validate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService Validate").
		Str(constants.KeyUserID, userID.String()).
		Logger()

	c = logger.WithContext(c)
	cart, err := svc.GetOrCreate(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		return false, err
	}

	logger = logger.With().Str(constants.KeyProcess, "finding products").Logger()
	logger.Trace().Msg("finding products")
	products, err := catalog.New(svc.queries).GetProducts(c, cart.ProductIDs())
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	logger.Trace().Msg("found products")

	valid := cart.Satisfiable(products)
	logger.Info().Bool("valid", valid).Msg("validated cart")
	return valid, nil
}

// Checkout places an order for the caller's cart through the order
// service. The cart is emptied afterwards only when configured to.
func (svc *CartService) Checkout(
	c context.Context,
	userID uuid.UUID,
	shippingID *uuid.UUID,
	idempotencyKey string,
) (order response.Order, err error) {
	c, span := otel.Tracer.Start(c, "CartService Checkout")
	defer span.End()
	defer func() { metrics.CartMutations.WithLabelValues("checkout", metrics.Outcome(err)).Inc() }()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "CartService Checkout").
		Str(constants.KeyUserID, userID.String()).
		Logger()

	c = logger.WithContext(c)
	cart, err := svc.GetOrCreate(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		return response.Order{}, err
	}
	if len(cart.Items) == 0 {
		err = inErrors.ErrEmptyCart
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	logger = logger.With().Str(constants.KeyProcess, "checking stock").Logger()
	logger.Trace().Msg("checking stock")
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		_, err := inventory.ReserveAll(c, catalog.New(q), cart.Lines(), inventory.Check)
		return err
	})
	if err != nil {
		err = inErrors.StorageFailure(fmt.Errorf("failed checking stock with error=%w", err))
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("checked stock")

	logger = logger.With().Str(constants.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	order, err = svc.orders.CreateOrder(c, request.NewCreateOrder(cart.Lines(), shippingID), idempotencyKey)
	if err != nil {
		err = fmt.Errorf("failed creating order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(constants.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("created order")

	if !svc.cfg.ClearOnCheckout {
		return order, nil
	}

	logger = logger.With().Str(constants.KeyProcess, "clearing cart").Logger()
	logger.Trace().Msg("clearing cart")
	err = repository.ExecTx(c, svc.pool, pgx.TxOptions{}, func(q *repository.Queries) error {
		locked, err := lockOwnCart(c, q, userID)
		if err != nil {
			return err
		}
		if _, err = q.DeleteCartItemsByCartId(c, locked.ID); err != nil {
			return inErrors.StorageFailure(fmt.Errorf("failed clearing cart with error=%w", err))
		}
		return touch(c, q, locked.ID)
	})
	if err != nil {
		// the order is committed, clearing is best effort
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return order, nil
	}
	logger.Trace().Msg("cleared cart")

	return order, nil
}

func loadCart(c context.Context, q *repository.Queries, userID uuid.UUID) (domain.Cart, error) {
	cart, err := q.FindCartByUserId(c, userID)
	if err != nil {
		return domain.Cart{}, inErrors.StorageFailure(err)
	}
	items, err := q.FindCartItemsByCartId(c, cart.ID)
	if err != nil {
		return domain.Cart{}, inErrors.StorageFailure(err)
	}
	return cart.Domain(items), nil
}

// lockOwnCart locks the caller's cart row. A caller without a cart cannot
// own the item being addressed.
func lockOwnCart(c context.Context, q *repository.Queries, userID uuid.UUID) (repository.Cart, error) {
	cart, err := q.FindCartByUserIdForUpdate(c, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Cart{}, inErrors.ErrCartItemNotFound
	}
	if err != nil {
		return repository.Cart{}, inErrors.StorageFailure(fmt.Errorf("failed locking cart with error=%w", err))
	}
	return cart, nil
}

func touch(c context.Context, q *repository.Queries, cartID uuid.UUID) error {
	if _, err := q.TouchCart(c, cartID); err != nil {
		return inErrors.StorageFailure(fmt.Errorf("failed touching cart with error=%w", err))
	}
	return nil
}
