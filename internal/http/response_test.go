package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/checkout/internal/errors"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{&inErrors.ProductUnavailableError{ProductID: uuid.New()}, http.StatusUnprocessableEntity},
		{&inErrors.InsufficientStockError{}, http.StatusConflict},
		{&inErrors.InvalidStateTransitionError{}, http.StatusConflict},
		{inErrors.ErrDuplicateOrder, http.StatusConflict},
		{fmt.Errorf("wrapped error=%w", inErrors.ErrOrderNotFound), http.StatusNotFound},
		{inErrors.ErrCartItemNotFound, http.StatusNotFound},
		{inErrors.ErrUnauthorized, http.StatusForbidden},
		{inErrors.ErrForbidden, http.StatusForbidden},
		{inErrors.ErrTokenInvalid, http.StatusUnauthorized},
		{inErrors.ErrEmptyAuth, http.StatusUnauthorized},
		{inErrors.ErrInvalidQuantity, http.StatusBadRequest},
		{inErrors.ErrInvalidStatus, http.StatusBadRequest},
		{inErrors.ErrEmptyOrder, http.StatusBadRequest},
		{inErrors.ErrEmptyCart, http.StatusBadRequest},
		{inErrors.StorageFailure(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, StatusCode(test.err), "err=%v", test.err)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	productID := uuid.New()

	t.Run("insufficient stock carries the available quantity", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := fmt.Errorf("failed adding item with error=%w", &inErrors.InsufficientStockError{
			ProductID: productID,
			Requested: 1,
			Available: 0,
		})

		WriteErrorResponse(context.Background(), w, err)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, ValueApplicationJson, w.Header().Get(HeaderContentType))
		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, StatusFailed, body["status"])
		assert.Equal(t, inErrors.CodeInsufficientStock, body["code"])
		data := body["data"].(map[string]interface{})
		assert.Equal(t, productID.String(), data["product_id"])
		assert.EqualValues(t, 0, data["available"])
		assert.EqualValues(t, 1, data["requested"])
	})

	t.Run("storage failure hides the cause", func(t *testing.T) {
		w := httptest.NewRecorder()

		WriteErrorResponse(context.Background(), w, inErrors.StorageFailure(errors.New("password leaked")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, inErrors.CodeStorageFailure, body["code"])
		assert.NotContains(t, body["message"], "password")
	})
}
