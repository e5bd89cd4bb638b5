package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/cart/internal/otel"
	"github.com/Alturino/checkout/cart/pkg/request"
	"github.com/Alturino/checkout/cart/pkg/response"
	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inHttp "github.com/Alturino/checkout/internal/http"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/internal/validate"
	orderResponse "github.com/Alturino/checkout/order/pkg/response"
)

type CartService interface {
	GetOrCreate(c context.Context, userID uuid.UUID) (domain.Cart, error)
	AddItem(c context.Context, userID uuid.UUID, productID uuid.UUID, quantity int32) (domain.CartItem, error)
	UpdateItemQuantity(c context.Context, userID uuid.UUID, cartItemID uuid.UUID, quantity int32) (domain.CartItem, error)
	RemoveItem(c context.Context, userID uuid.UUID, cartItemID uuid.UUID) error
	GetSummary(c context.Context, userID uuid.UUID) (domain.CartSummary, error)
	Validate(c context.Context, userID uuid.UUID) (bool, error)
	Checkout(c context.Context, userID uuid.UUID, shippingID *uuid.UUID, idempotencyKey string) (orderResponse.Order, error)
}

type CartController struct {
	service CartService
}

func AttachCartController(mux *mux.Router, service CartService) {
	controller := CartController{service: service}

	router := mux.PathPrefix("/carts").Subrouter()
	router.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/summary", controller.GetSummary).Methods(http.MethodGet)
	router.HandleFunc("/validate", controller.Validate).Methods(http.MethodGet)
	router.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	router.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{cartItemId}", controller.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{cartItemId}", controller.RemoveItem).Methods(http.MethodDelete)
}

func (t CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController GetCart").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := t.service.GetOrCreate(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "found cart",
		"data":       map[string]interface{}{"cart": response.FromCart(cart)},
	})
}

func (t CartController) GetSummary(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetSummary")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController GetSummary").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "summarizing cart").Logger()
	logger.Info().Msg("summarizing cart")
	c = logger.WithContext(c)
	summary, err := t.service.GetSummary(c, userID)
	if err != nil {
		err = fmt.Errorf("failed summarizing cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("summarized cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "summarized cart",
		"data":       map[string]interface{}{"summary": response.FromSummary(summary)},
	})
}

func (t CartController) Validate(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Validate")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController Validate").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "validating cart").Logger()
	logger.Info().Msg("validating cart")
	c = logger.WithContext(c)
	valid, err := t.service.Validate(c, userID)
	if err != nil {
		err = fmt.Errorf("failed validating cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Bool("valid", valid).Msg("validated cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "validated cart",
		"data":       map[string]interface{}{"valid": valid},
	})
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController AddItem").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.AddCartItem{}
	if !decodeAndValidate(c, w, r, logger, &reqBody) {
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().
		Str(constants.KeyProcess, "adding cart item").
		Str(constants.KeyProductID, reqBody.ProductID.String()).
		Int32(constants.KeyQuantity, reqBody.Quantity).
		Logger()
	logger.Info().Msg("adding cart item")
	c = logger.WithContext(c)
	item, err := t.service.AddItem(c, userID, reqBody.ProductID, reqBody.Quantity)
	if err != nil {
		err = fmt.Errorf("failed adding cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added cart item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "added cart item",
		"data":       map[string]interface{}{"cart_item": response.FromCartItem(item)},
	})
}

func (t CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController UpdateItem").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}
	cartItemID, ok := cartItemIDOrFail(c, w, r, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(constants.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.UpdateCartItem{}
	if !decodeAndValidate(c, w, r, logger, &reqBody) {
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().
		Str(constants.KeyProcess, "updating cart item").
		Str(constants.KeyCartItemID, cartItemID.String()).
		Int32(constants.KeyQuantity, *reqBody.Quantity).
		Logger()
	logger.Info().Msg("updating cart item")
	c = logger.WithContext(c)
	item, err := t.service.UpdateItemQuantity(c, userID, cartItemID, *reqBody.Quantity)
	if err != nil {
		err = fmt.Errorf("failed updating cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated cart item")

	if *reqBody.Quantity == 0 {
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     inHttp.StatusSuccess,
			"statusCode": http.StatusOK,
			"message":    "removed cart item",
		})
		return
	}
	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "updated cart item",
		"data":       map[string]interface{}{"cart_item": response.FromCartItem(item)},
	})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController RemoveItem").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}
	cartItemID, ok := cartItemIDOrFail(c, w, r, logger)
	if !ok {
		return
	}

	logger = logger.With().
		Str(constants.KeyProcess, "removing cart item").
		Str(constants.KeyCartItemID, cartItemID.String()).
		Logger()
	logger.Info().Msg("removing cart item")
	c = logger.WithContext(c)
	if err := t.service.RemoveItem(c, userID, cartItemID); err != nil {
		err = fmt.Errorf("failed removing cart item with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed cart item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusOK,
		"message":    "removed cart item",
	})
}

func (t CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "CartController Checkout").Logger()

	userID, ok := userIDOrFail(c, w, logger)
	if !ok {
		return
	}

	reqBody := request.Checkout{}
	if r.ContentLength != 0 {
		logger = logger.With().Str(constants.KeyProcess, "decoding request body").Logger()
		logger.Info().Msg("decoding request body")
		if !decodeAndValidate(c, w, r, logger, &reqBody) {
			return
		}
		logger.Info().Msg("decoded request body")
	}

	idempotencyKey := r.Header.Get(inHttp.HeaderIdempotencyKey)
	logger = logger.With().
		Str(constants.KeyProcess, "checking out cart").
		Str(constants.KeyIdempotencyKey, idempotencyKey).
		Logger()
	logger.Info().Msg("checking out cart")
	c = logger.WithContext(c)
	order, err := t.service.Checkout(c, userID, reqBody.ShippingID, idempotencyKey)
	if err != nil {
		err = fmt.Errorf("failed checking out cart with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Str(constants.KeyOrderID, order.ID.String()).Msg("checked out cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     inHttp.StatusSuccess,
		"statusCode": http.StatusCreated,
		"message":    "created order",
		"data":       map[string]interface{}{"order": order},
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

func cartItemIDOrFail(
	c context.Context,
	w http.ResponseWriter,
	r *http.Request,
	logger zerolog.Logger,
) (uuid.UUID, bool) {
	cartItemID, err := uuid.Parse(mux.Vars(r)["cartItemId"])
	if err != nil {
		err = fmt.Errorf("failed parsing cartItemId with error=%w", err)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteBadRequest(c, w, err)
		return uuid.Nil, false
	}
	return cartItemID, true
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
