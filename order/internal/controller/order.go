package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inHttp "github.com/Alturino/checkout/internal/http"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/validate"
	"github.com/Alturino/checkout/order/internal/otel"
	"github.com/Alturino/checkout/order/pkg/request"
	"github.com/Alturino/checkout/order/pkg/response"
)

type OrderService interface {
	CreateOrder(
		c context.Context,
		userID uuid.UUID,
		lines []domain.Line,
		shippingID *uuid.UUID,
		idempotencyKey string,
	) (domain.Order, error)
	GetById(c context.Context, orderID uuid.UUID) (domain.Order, error)
	GetCustomerOrder(c context.Context, orderID uuid.UUID, userID uuid.UUID) (domain.Order, error)
	Cancel(c context.Context, orderID uuid.UUID, userID uuid.UUID) (domain.Order, error)
	UpdateStatus(
		c context.Context,
		orderID uuid.UUID,
		orderStatus domain.OrderStatus,
		paymentStatus *domain.PaymentStatus,
	) (domain.Order, error)
	GetHistory(c context.Context, userID uuid.UUID, limit int, cursor *uuid.UUID) (domain.OrderHistory, error)
	GetAllOrders(c context.Context, filter domain.OrderFilter) (domain.OrderPage, error)
	GetSummary(c context.Context, filter domain.OrderFilter) (domain.OrderSummary, error)
}

type OrderController struct {
	service OrderService
}

func AttachOrderController(mux *mux.Router, service OrderService) {
	controller := OrderController{service: service}

	router := mux.PathPrefix("/orders").Subrouter()
	router.HandleFunc("", controller.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("", controller.GetHistory).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}", controller.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/{orderId}/cancel", controller.CancelOrder).Methods(http.MethodPost)
}

func (ctrl OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "OrderController CreateOrder").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.CreateOrder{}
	if !decodeAndValidate(c, w, r, logger, &reqBody) {
		return
	}
	logger.Info().Msg("decoded request body")

	idempotencyKey := r.Header.Get(inHttp.HeaderIdempotencyKey)
	logger = logger.With().
		Str(constants.KeyProcess, "creating order").
		Str(constants.KeyIdempotencyKey, idempotencyKey).
		Logger()
	logger.Info().Msg("creating order")
	c = logger.WithContext(c)
	order, err := ctrl.service.CreateOrder(c, userID, reqBody.Lines(), reqBody.ShippingID, idempotencyKey)
	if err != nil {
		err = fmt.Errorf("failed creating order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(constants.KeyOrderID, order.ID.String()).Msg("created order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "created order",
		"data":       map[string]interface{}{"order": response.FromDomain(order)},
	})
}

func (ctrl OrderController) GetHistory(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController GetHistory")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "OrderController GetHistory").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "parsing query").Logger()
	query := r.URL.Query()
	limit := 0
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			err = fmt.Errorf("failed parsing limit=%s", v)
			logger.Info().Err(err).Msg(err.Error())
			inHttp.WriteBadRequest(c, w, err)
			return
		}
		limit = parsed
	}
	var cursor *uuid.UUID
	if v := query.Get("cursor"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			err = fmt.Errorf("failed parsing cursor with error=%w", err)
			logger.Info().Err(err).Msg(err.Error())
			inHttp.WriteBadRequest(c, w, err)
			return
		}
		cursor = &parsed
	}

	logger = logger.With().Str(constants.KeyProcess, "finding order history").Logger()
	logger.Info().Msg("finding order history")
	c = logger.WithContext(c)
	history, err := ctrl.service.GetHistory(c, userID, limit, cursor)
	if err != nil {
		err = fmt.Errorf("failed finding order history with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found order history")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "found order history",
		"data": response.OrderHistory{
			Orders:     response.FromDomains(history.Orders),
			NextCursor: history.NextCursor,
		},
	})
}

func (ctrl OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController GetOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "OrderController GetOrder").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}
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
	order, err := ctrl.service.GetCustomerOrder(c, orderID, userID)
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

func (ctrl OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CancelOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "OrderController CancelOrder").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}
	orderID, ok := orderIDOrFail(c, w, r, logger)
	if !ok {
		return
	}

	logger = logger.With().
		Str(constants.KeyProcess, "cancelling order").
		Str(constants.KeyOrderID, orderID.String()).
		Logger()
	logger.Info().Msg("cancelling order")
	c = logger.WithContext(c)
	order, err := ctrl.service.Cancel(c, orderID, userID)
	if err != nil {
		err = fmt.Errorf("failed cancelling order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("cancelled order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "cancelled order",
		"data":       map[string]interface{}{"order": response.FromDomain(order)},
	})
}

func userIDOrFail(c context.Context, w http.ResponseWriter, logger zerolog.Logger) (uuid.UUID, bool) {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		err = fmt.Errorf("failed getting userId from token with error=%w", err)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return uuid.Nil, false
	}
	return userID, true
}

func orderIDOrFail(
	c context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger zerolog.Logger,
) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(mux.Vars(r)["orderId"])
	if err != nil {
		err = fmt.Errorf("failed parsing orderId with error=%w", err)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return uuid.Nil, false
	}
	return orderID, true
}

func decodeAndValidate(
	c context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger zerolog.Logger,
	body interface{},
) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return false
	}
	if err := validate.Struct(c, body); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return false
	}
	return true
}
