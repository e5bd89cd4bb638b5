package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/middleware"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/order/internal/otel"
	"github.com/Alturino/checkout/order/pkg/request"
	"github.com/Alturino/checkout/order/pkg/response"
)

type AdminOrderController struct {
	service OrderService
}

// AttachAdminOrderController registers the privileged order routes. Every
// route requires the admin role.
func AttachAdminOrderController(mux *mux.Router, service OrderService) {
	controller := AdminOrderController{service: service}

	router := mux.PathPrefix("/admin/orders").Subrouter()
	router.Use(middleware.RequireRole(constants.RoleAdmin))
	router.HandleFunc("", controller.GetAllOrders).Methods(http.MethodGet)
	router.HandleFunc("/summary", controller.GetSummary).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}", controller.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}/status", controller.UpdateStatus).Methods(http.MethodPatch)
}

func (ctrl AdminOrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminOrderController GetAllOrders")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "AdminOrderController GetAllOrders").Logger()

	filter, err := ParseOrderFilter(r.URL.Query())
	if err != nil {
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "finding orders").Any(constants.KeyFilter, filter).Logger()
	logger.Info().Msg("finding orders")
	c = logger.WithContext(c)
	page, err := ctrl.service.GetAllOrders(c, filter)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Int64("total", page.Total).Msg("found orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "found orders",
		"data":       response.FromPage(page),
	})
}

func (ctrl AdminOrderController) GetSummary(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminOrderController GetSummary")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "AdminOrderController GetSummary").Logger()

	filter, err := ParseOrderFilter(r.URL.Query())
	if err != nil {
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "summarizing orders").Any(constants.KeyFilter, filter).Logger()
	logger.Info().Msg("summarizing orders")
	c = logger.WithContext(c)
	summary, err := ctrl.service.GetSummary(c, filter)
	if err != nil {
		err = fmt.Errorf("failed summarizing orders with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("summarized orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "summarized orders",
		"data":       map[string]interface{}{"summary": summary},
	})
}

func (ctrl AdminOrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminOrderController GetOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "AdminOrderController GetOrder").Logger()

	orderID, ok := orderIDOrFail(c, w, r, logger)
	if !ok {
		return
	}

	logger = logger.With().
		Str(constants.KeyProcess, "finding order").
		Str(constants.KeyOrderID, orderID.String()).
		Logger()
	logger.Info().Msg("finding order")
	c = logger.WithContext(c)
	order, err := ctrl.service.GetById(c, orderID)
	if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "found order",
		"data":       map[string]interface{}{"order": response.FromDomain(order)},
	})
}

func (ctrl AdminOrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminOrderController UpdateStatus")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "AdminOrderController UpdateStatus").Logger()

	orderID, ok := orderIDOrFail(c, w, r, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.UpdateOrderStatus{}
	if !decodeAndValidate(c, w, r, logger, &reqBody) {
		return
	}
	logger.Info().Msg("decoded request body")

	var paymentStatus *domain.PaymentStatus
	if reqBody.PaymentStatus != "" {
		status := domain.PaymentStatus(reqBody.PaymentStatus)
		paymentStatus = &status
	}

	logger = logger.With().
		Str(constants.KeyProcess, "updating order status").
		Str(constants.KeyOrderID, orderID.String()).
		Str(constants.KeyOrderStatus, reqBody.OrderStatus).
		Logger()
	logger.Info().Msg("updating order status")
	c = logger.WithContext(c)
	order, err := ctrl.service.UpdateStatus(c, orderID, domain.OrderStatus(reqBody.OrderStatus), paymentStatus)
	if err != nil {
		err = fmt.Errorf("failed updating order status with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated order status")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "updated order status",
		"data":       map[string]interface{}{"order": response.FromDomain(order)},
	})
}

// ParseOrderFilter reads user_id, order_status, payment_status, from, to
// (RFC 3339), sort_by, order (asc or desc), page and limit.
func ParseOrderFilter(query url.Values) (domain.OrderFilter, error) {
	filter := domain.OrderFilter{}

	if v := query.Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			return domain.OrderFilter{}, fmt.Errorf("failed parsing user_id with error=%w", err)
		}
		filter.UserID = &userID
	}
	if v := query.Get("order_status"); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			return domain.OrderFilter{}, fmt.Errorf("failed parsing order_status=%s with error=%w", v, err)
		}
		filter.OrderStatus = &status
	}
	if v := query.Get("payment_status"); v != "" {
		status, err := domain.ParsePaymentStatus(v)
		if err != nil {
			return domain.OrderFilter{}, fmt.Errorf("failed parsing payment_status=%s with error=%w", v, err)
		}
		filter.PaymentStatus = &status
	}
	for _, bound := range []struct {
		name   string
		target **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		v := query.Get(bound.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return domain.OrderFilter{}, fmt.Errorf("failed parsing %s with error=%w", bound.name, err)
		}
		*bound.target = &t
	}
	switch v := domain.OrderSortField(query.Get("sort_by")); v {
	case "", domain.SortByOrderDate, domain.SortByOrderTotal:
		filter.SortBy = v
	default:
		return domain.OrderFilter{}, fmt.Errorf("unknown sort_by=%s", v)
	}
	switch v := query.Get("order"); v {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		return domain.OrderFilter{}, fmt.Errorf("unknown order=%s", v)
	}
	for _, number := range []struct {
		name   string
		target *int
	}{{"page", &filter.Page}, {"limit", &filter.Limit}} {
		v := query.Get(number.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.OrderFilter{}, fmt.Errorf("invalid %s=%s", number.name, v)
		}
		*number.target = n
	}
	return filter, nil
}
