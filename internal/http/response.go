package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/otel"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(HeaderContentType, ValueApplicationJson)
	for k, v := range header {
		w.Header().Set(k, v)
	}

	if v, ok := body["statusCode"].(int); ok {
		w.WriteHeader(v)
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
}

// StatusCode maps a domain error onto the HTTP status it is reported with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, inErrors.ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inErrors.ErrInsufficientStock),
		errors.Is(err, inErrors.ErrInvalidStateTransition),
		errors.Is(err, inErrors.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, inErrors.ErrCartItemNotFound),
		errors.Is(err, inErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrUnauthorized),
		errors.Is(err, inErrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrEmptyAuth),
		errors.Is(err, inErrors.ErrEmptySubject),
		errors.Is(err, inErrors.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrInvalidQuantity),
		errors.Is(err, inErrors.ErrInvalidStatus),
		errors.Is(err, inErrors.ErrEmptyOrder),
		errors.Is(err, inErrors.ErrEmptyCart):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteErrorResponse reports err with its status and code. Storage and
// unknown failures are not echoed back to the caller.
func WriteErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	statusCode := StatusCode(err)
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = http.StatusText(http.StatusInternalServerError)
	}
	body := map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": statusCode,
		"code":       inErrors.Code(err),
		"message":    message,
	}
	var stockErr *inErrors.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["data"] = map[string]interface{}{
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		}
	}
	var unavailableErr *inErrors.ProductUnavailableError
	if errors.As(err, &unavailableErr) {
		body["data"] = map[string]interface{}{"product_id": unavailableErr.ProductID}
	}
	WriteJsonResponse(c, w, map[string]string{}, body)
}

// WriteBadRequest reports a malformed or invalid request body.
func WriteBadRequest(c context.Context, w http.ResponseWriter, err error) {
	WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     StatusFailed,
		"statusCode": http.StatusBadRequest,
		"code":       "BAD_REQUEST",
		"message":    err.Error(),
	})
}
