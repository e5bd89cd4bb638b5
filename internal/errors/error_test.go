package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	productID := uuid.New()

	stock := fmt.Errorf("failed reserving with error=%w", &InsufficientStockError{ProductID: productID, Requested: 3, Available: 1})
	assert.ErrorIs(t, stock, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	assert.ErrorAs(t, stock, &stockErr)
	assert.EqualValues(t, 1, stockErr.Available)
	assert.Contains(t, stock.Error(), "available=1")

	unavailable := &ProductUnavailableError{ProductID: productID}
	assert.ErrorIs(t, unavailable, ErrProductUnavailable)
	assert.Contains(t, unavailable.Error(), productID.String())

	transition := &InvalidStateTransitionError{OrderID: uuid.New(), From: "SHIPPED", To: "CANCELLED"}
	assert.ErrorIs(t, transition, ErrInvalidStateTransition)
}

func TestStorageFailure(t *testing.T) {
	assert.NoError(t, StorageFailure(nil))

	raw := errors.New("connection reset")
	wrapped := StorageFailure(raw)
	assert.ErrorIs(t, wrapped, ErrStorageFailure)
	assert.ErrorIs(t, wrapped, raw)
	assert.Equal(t, CodeStorageFailure, Code(wrapped))

	assert.Same(t, ErrOrderNotFound, StorageFailure(ErrOrderNotFound))
}

func TestCode(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{err: nil, expected: ""},
		{err: &ProductUnavailableError{}, expected: CodeProductUnavailable},
		{err: &InsufficientStockError{}, expected: CodeInsufficientStock},
		{err: fmt.Errorf("wrapped %w", ErrCartItemNotFound), expected: CodeCartItemNotFound},
		{err: ErrOrderNotFound, expected: CodeOrderNotFound},
		{err: ErrUnauthorized, expected: CodeUnauthorized},
		{err: ErrInvalidQuantity, expected: CodeInvalidQuantity},
		{err: &InvalidStateTransitionError{}, expected: CodeInvalidStateTransition},
		{err: ErrDuplicateOrder, expected: CodeDuplicateOrder},
		{err: ErrTokenInvalid, expected: CodeUnauthenticated},
		{err: errors.New("boom"), expected: CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Code(tt.err))
		})
	}
}

func TestFromCode(t *testing.T) {
	assert.Same(t, ErrInsufficientStock, FromCode(CodeInsufficientStock))
	assert.Same(t, ErrOrderNotFound, FromCode(CodeOrderNotFound))
	assert.Nil(t, FromCode("NOPE"))
}
