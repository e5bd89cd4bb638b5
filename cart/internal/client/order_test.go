package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/checkout/internal/auth"
	inErrors "github.com/Alturino/checkout/internal/errors"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/money"
	"github.com/Alturino/checkout/order/pkg/request"
	"github.com/Alturino/checkout/order/pkg/response"
)

func TestCreateOrder(t *testing.T) {
	productID := uuid.New()
	orderID := uuid.New()
	param := request.CreateOrder{OrderItems: []request.OrderItem{{ProductID: productID, Quantity: 2}}}

	t.Run("forwards credentials and decodes the order", func(t *testing.T) {
		var (
			authorization  string
			idempotencyKey string
			received       request.CreateOrder
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders", r.URL.Path)
			authorization = r.Header.Get(inHttp.HeaderAuthorization)
			idempotencyKey = r.Header.Get(inHttp.HeaderIdempotencyKey)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			inHttp.WriteJsonResponse(r.Context(), w, map[string]string{}, map[string]interface{}{
				"status":     inHttp.StatusSuccess,
				"statusCode": http.StatusCreated,
				"data": map[string]interface{}{
					"order": response.Order{
						ID:          orderID,
						OrderTotal:  money.MustFromString("20.00"),
						OrderStatus: "PENDING",
					},
				},
			})
		}))
		defer server.Close()

		c := auth.AttachToken(context.Background(), "jwt")
		order, err := NewOrderClient(server.URL+"/", time.Second).CreateOrder(c, param, "key-1")

		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, "20.00", order.OrderTotal.String())
		assert.Equal(t, "Bearer jwt", authorization)
		assert.Equal(t, "key-1", idempotencyKey)
		assert.Equal(t, param, received)
	})

	t.Run("maps insufficient stock back to the typed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inHttp.WriteErrorResponse(r.Context(), w, &inErrors.InsufficientStockError{
				ProductID: productID,
				Requested: 2,
				Available: 1,
			})
		}))
		defer server.Close()

		_, err := NewOrderClient(server.URL, time.Second).CreateOrder(context.Background(), param, "")

		var stockErr *inErrors.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, productID, stockErr.ProductID)
		assert.Equal(t, int32(1), stockErr.Available)
	})

	t.Run("maps sentinel codes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inHttp.WriteErrorResponse(r.Context(), w, inErrors.ErrDuplicateOrder)
		}))
		defer server.Close()

		_, err := NewOrderClient(server.URL, time.Second).CreateOrder(context.Background(), param, "key")

		assert.ErrorIs(t, err, inErrors.ErrDuplicateOrder)
	})
}
