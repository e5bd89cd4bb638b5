package errors

import "errors"

const (
	CodeProductUnavailable     = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeCartItemNotFound       = "CART_ITEM_NOT_FOUND"
	CodeOrderNotFound          = "ORDER_NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInvalidStatus          = "INVALID_STATUS"
	CodeEmptyOrder             = "EMPTY_ORDER"
	CodeEmptyCart              = "EMPTY_CART"
	CodeDuplicateOrder         = "DUPLICATE_ORDER"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeForbidden              = "FORBIDDEN"
	CodeStorageFailure         = "STORAGE_FAILURE"
	CodeInternal               = "INTERNAL"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrProductUnavailable, CodeProductUnavailable},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrCartItemNotFound, CodeCartItemNotFound},
	{ErrOrderNotFound, CodeOrderNotFound},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrInvalidStateTransition, CodeInvalidStateTransition},
	{ErrInvalidStatus, CodeInvalidStatus},
	{ErrEmptyOrder, CodeEmptyOrder},
	{ErrEmptyCart, CodeEmptyCart},
	{ErrDuplicateOrder, CodeDuplicateOrder},
	{ErrEmptyAuth, CodeUnauthenticated},
	{ErrEmptySubject, CodeUnauthenticated},
	{ErrTokenInvalid, CodeUnauthenticated},
	{ErrForbidden, CodeForbidden},
	{ErrStorageFailure, CodeStorageFailure},
}

// Code classifies err into a stable machine readable code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode returns the sentinel for code, used by clients decoding a failed
// response from another service.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
