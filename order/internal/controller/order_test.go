package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/money"
)

type fakeOrderService struct {
	err            error
	lines          []domain.Line
	idempotencyKey string
	limit          int
	cursor         *uuid.UUID
	filter         domain.OrderFilter
	orderStatus    domain.OrderStatus
	paymentStatus  *domain.PaymentStatus
}

func (f *fakeOrderService) order(userID uuid.UUID) domain.Order {
	return domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		OrderTotal:    money.MustFromString("10.00"),
		OrderStatus:   domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func (f *fakeOrderService) CreateOrder(
	_ context.Context,
	userID uuid.UUID,
	lines []domain.Line,
	_ *uuid.UUID,
	idempotencyKey string,
) (domain.Order, error) {
	f.lines, f.idempotencyKey = lines, idempotencyKey
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order(userID), nil
}

func (f *fakeOrderService) GetById(context.Context, uuid.UUID) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order(uuid.New()), nil
}

func (f *fakeOrderService) GetCustomerOrder(_ context.Context, _ uuid.UUID, userID uuid.UUID) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order(userID), nil
}

func (f *fakeOrderService) Cancel(_ context.Context, _ uuid.UUID, userID uuid.UUID) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	order := f.order(userID)
	order.OrderStatus = domain.OrderStatusCancelled
	return order, nil
}

func (f *fakeOrderService) UpdateStatus(
	_ context.Context,
	_ uuid.UUID,
	orderStatus domain.OrderStatus,
	paymentStatus *domain.PaymentStatus,
) (domain.Order, error) {
	f.orderStatus, f.paymentStatus = orderStatus, paymentStatus
	if f.err != nil {
		return domain.Order{}, f.err
	}
	order := f.order(uuid.New())
	order.OrderStatus = orderStatus
	return order, nil
}

func (f *fakeOrderService) GetHistory(
	_ context.Context,
	userID uuid.UUID,
	limit int,
	cursor *uuid.UUID,
) (domain.OrderHistory, error) {
	f.limit, f.cursor = limit, cursor
	if f.err != nil {
		return domain.OrderHistory{}, f.err
	}
	next := uuid.New()
	return domain.OrderHistory{Orders: []domain.Order{f.order(userID)}, NextCursor: &next}, nil
}

func (f *fakeOrderService) GetAllOrders(_ context.Context, filter domain.OrderFilter) (domain.OrderPage, error) {
	f.filter = filter
	if f.err != nil {
		return domain.OrderPage{}, f.err
	}
	return domain.OrderPage{Orders: []domain.Order{f.order(uuid.New())}, Total: 1, Page: 1, Limit: 20}, nil
}

func (f *fakeOrderService) GetSummary(_ context.Context, filter domain.OrderFilter) (domain.OrderSummary, error) {
	f.filter = filter
	if f.err != nil {
		return domain.OrderSummary{}, f.err
	}
	return domain.Summarize(nil), nil
}

type envelope struct {
	Status     string                 `json:"status"`
	StatusCode int                    `json:"statusCode"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data"`
}

func serve(t *testing.T, svc OrderService, r *http.Request, role string) (int, envelope) {
	t.Helper()

	router := mux.NewRouter()
	AttachOrderController(router, svc)
	AttachAdminOrderController(router, svc)

	if role != "" {
		claims := &auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}
		r = r.WithContext(auth.AttachClaims(r.Context(), claims))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	body := envelope{}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return bytes.NewReader(b)
}

func TestCreateOrder(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name     string
		body     interface{}
		err      error
		expected int
		code     string
	}{
		{
			name: "created",
			body: map[string]interface{}{
				"order_items": []map[string]interface{}{{"product_id": productID, "quantity": 2}},
			},
			expected: http.StatusCreated,
		},
		{
			name:     "no items",
			body:     map[string]interface{}{"order_items": []map[string]interface{}{}},
			expected: http.StatusBadRequest,
			code:     "BAD_REQUEST",
		},
		{
			name: "zero quantity",
			body: map[string]interface{}{
				"order_items": []map[string]interface{}{{"product_id": productID, "quantity": 0}},
			},
			expected: http.StatusBadRequest,
			code:     "BAD_REQUEST",
		},
		{
			name: "insufficient stock",
			body: map[string]interface{}{
				"order_items": []map[string]interface{}{{"product_id": productID, "quantity": 7}},
			},
			err:      &inErrors.InsufficientStockError{ProductID: productID, Requested: 7, Available: 3},
			expected: http.StatusConflict,
			code:     inErrors.CodeInsufficientStock,
		},
		{
			name: "duplicate in flight",
			body: map[string]interface{}{
				"order_items": []map[string]interface{}{{"product_id": productID, "quantity": 1}},
			},
			err:      inErrors.ErrDuplicateOrder,
			expected: http.StatusConflict,
			code:     inErrors.CodeDuplicateOrder,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := &fakeOrderService{err: test.err}
			r := httptest.NewRequest(http.MethodPost, "/orders", jsonBody(t, test.body))
			r.Header.Set(inHttp.HeaderIdempotencyKey, "retry-1")
			code, body := serve(t, svc, r, constants.RoleCustomer)
			assert.Equal(t, test.expected, code)
			if test.code != "" {
				assert.Equal(t, test.code, body.Code)
			}
			if test.expected == http.StatusCreated {
				assert.Equal(t, []domain.Line{{ProductID: productID, Quantity: 2}}, svc.lines)
				assert.Equal(t, "retry-1", svc.idempotencyKey)
				assert.Contains(t, body.Data, "order")
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	t.Run("forwards limit and cursor", func(t *testing.T) {
		cursor := uuid.New()
		svc := &fakeOrderService{}
		r := httptest.NewRequest(http.MethodGet, "/orders?limit=5&cursor="+cursor.String(), nil)
		code, body := serve(t, svc, r, constants.RoleCustomer)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 5, svc.limit)
		assert.Equal(t, cursor, *svc.cursor)
		assert.Len(t, body.Data["orders"], 1)
		assert.NotEmpty(t, body.Data["next_cursor"])
	})

	t.Run("bad cursor", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/orders?cursor=nope", nil)
		code, _ := serve(t, &fakeOrderService{}, r, constants.RoleCustomer)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("foreign cursor", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/orders?cursor="+uuid.NewString(), nil)
		code, body := serve(t, &fakeOrderService{err: inErrors.ErrUnauthorized}, r, constants.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, inErrors.CodeUnauthorized, body.Code)
	})
}

func TestGetOrder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "found", expected: http.StatusOK},
		{name: "not found", err: inErrors.ErrOrderNotFound, expected: http.StatusNotFound},
		{name: "other owner", err: inErrors.ErrUnauthorized, expected: http.StatusForbidden},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
			code, _ := serve(t, &fakeOrderService{err: test.err}, r, constants.RoleCustomer)
			assert.Equal(t, test.expected, code)
		})
	}
}

func TestCancelOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil)
	code, body := serve(t, &fakeOrderService{}, r, constants.RoleCustomer)
	assert.Equal(t, http.StatusOK, code)
	order := body.Data["order"].(map[string]interface{})
	assert.Equal(t, "CANCELLED", order["order_status"])

	err := &inErrors.InvalidStateTransitionError{From: "SHIPPED", To: "CANCELLED"}
	r = httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil)
	code, body = serve(t, &fakeOrderService{err: err}, r, constants.RoleCustomer)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, inErrors.CodeInvalidStateTransition, body.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	paths := []string{"/admin/orders", "/admin/orders/summary", "/admin/orders/" + uuid.NewString()}
	for _, path := range paths {
		code, body := serve(t, &fakeOrderService{}, httptest.NewRequest(http.MethodGet, path, nil), constants.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, inErrors.CodeForbidden, body.Code, path)

		code, _ = serve(t, &fakeOrderService{}, httptest.NewRequest(http.MethodGet, path, nil), constants.RoleAdmin)
		assert.Equal(t, http.StatusOK, code, path)
	}
}

func TestAdminGetSummary(t *testing.T) {
	code, body := serve(
		t,
		&fakeOrderService{},
		httptest.NewRequest(http.MethodGet, "/admin/orders/summary", nil),
		constants.RoleAdmin,
	)
	assert.Equal(t, http.StatusOK, code)
	summary := body.Data["summary"].(map[string]interface{})
	byStatus := summary["orders_by_status"].(map[string]interface{})
	assert.Len(t, byStatus, len(domain.OrderStatuses))
	assert.Equal(t, "0.00", summary["average_order_value"])
}

func TestAdminUpdateStatus(t *testing.T) {
	t.Run("payment status optional", func(t *testing.T) {
		svc := &fakeOrderService{}
		r := httptest.NewRequest(
			http.MethodPatch,
			"/admin/orders/"+uuid.NewString()+"/status",
			jsonBody(t, map[string]interface{}{"order_status": "SHIPPED"}),
		)
		code, _ := serve(t, svc, r, constants.RoleAdmin)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, domain.OrderStatusShipped, svc.orderStatus)
		assert.Nil(t, svc.paymentStatus)
	})

	t.Run("both statuses", func(t *testing.T) {
		svc := &fakeOrderService{}
		r := httptest.NewRequest(
			http.MethodPatch,
			"/admin/orders/"+uuid.NewString()+"/status",
			jsonBody(t, map[string]interface{}{"order_status": "REFUNDED", "payment_status": "REFUNDED"}),
		)
		code, _ := serve(t, svc, r, constants.RoleAdmin)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, domain.PaymentStatusRefunded, *svc.paymentStatus)
	})

	t.Run("unknown status", func(t *testing.T) {
		r := httptest.NewRequest(
			http.MethodPatch,
			"/admin/orders/"+uuid.NewString()+"/status",
			jsonBody(t, map[string]interface{}{"order_status": "LOST"}),
		)
		code, _ := serve(t, &fakeOrderService{}, r, constants.RoleAdmin)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestParseOrderFilter(t *testing.T) {
	userID := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	filter, err := ParseOrderFilter(url.Values{
		"user_id":        {userID.String()},
		"order_status":   {"PENDING"},
		"payment_status": {"COMPLETED"},
		"from":           {from.Format(time.RFC3339)},
		"sort_by":        {"order_total"},
		"order":          {"asc"},
		"page":           {"2"},
		"limit":          {"10"},
	})
	assert.NoError(t, err)
	assert.Equal(t, userID, *filter.UserID)
	assert.Equal(t, domain.OrderStatusPending, *filter.OrderStatus)
	assert.Equal(t, domain.PaymentStatusCompleted, *filter.PaymentStatus)
	assert.True(t, from.Equal(*filter.From))
	assert.Nil(t, filter.To)
	assert.Equal(t, domain.SortByOrderTotal, filter.SortBy)
	assert.True(t, filter.Ascending)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 10, filter.Limit)

	invalid := []url.Values{
		{"user_id": {"x"}},
		{"order_status": {"LOST"}},
		{"payment_status": {"LOST"}},
		{"from": {"yesterday"}},
		{"sort_by": {"name"}},
		{"order": {"sideways"}},
		{"page": {"0"}},
		{"limit": {"many"}},
	}
	for _, query := range invalid {
		_, err := ParseOrderFilter(query)
		assert.Error(t, err, query.Encode())
	}
}
