package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEmptyAuth       = errors.New("missing authorization")
	ErrEmptySubject    = errors.New("missing subject")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
	ErrFailedHashToken = errors.New("failed hashing token")
)

var (
	ErrProductUnavailable     = errors.New("product unavailable")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrCartItemNotFound       = errors.New("cart item not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrUnauthorized           = errors.New("resource belongs to another user")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrEmptyOrder             = errors.New("order has no items")
	ErrEmptyCart              = errors.New("cart has no items")
	ErrDuplicateOrder         = errors.New("order with the same idempotency key is in progress")
	ErrStorageFailure         = errors.New("storage failure")
)

type ProductUnavailableError struct {
	ProductID uuid.UUID
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product=%s is unavailable", e.ProductID)
}

func (e *ProductUnavailableError) Unwrap() error {
	return ErrProductUnavailable
}

// InsufficientStockError reports how many units could still be granted for
// ProductID.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product=%s requested=%d available=%d",
		e.ProductID,
		e.Requested,
		e.Available,
	)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

type InvalidStateTransitionError struct {
	OrderID uuid.UUID
	From    string
	To      string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("order=%s cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error {
	return ErrInvalidStateTransition
}

type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s", e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorageFailure, e.Err}
}

// StorageFailure wraps err unless it is nil or already classified.
func StorageFailure(err error) error {
	if err == nil {
		return nil
	}
	if Code(err) != CodeInternal {
		return err
	}
	return &StorageError{Err: err}
}
