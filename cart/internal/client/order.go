package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/checkout/cart/internal/otel"
	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/constants"
	inErrors "github.com/Alturino/checkout/internal/errors"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/log"
	inOtel "github.com/Alturino/checkout/internal/otel"
	"github.com/Alturino/checkout/order/pkg/request"
	"github.com/Alturino/checkout/order/pkg/response"
)

// OrderClient places orders on the order service on behalf of the caller
// whose bearer token is carried in the context.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type stockData struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int32     `json:"requested"`
	Available int32     `json:"available"`
}

func (o *OrderClient) CreateOrder(
	c context.Context,
	param request.CreateOrder,
	idempotencyKey string,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderClient CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderClient CreateOrder").
		Int(constants.KeyOrderItems, len(param.OrderItems)).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "encoding request body").Logger()
	logger.Trace().Msg("encoding request body")
	body, err := json.Marshal(param)
	if err != nil {
		err = fmt.Errorf("failed encoding request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("encoded request body")

	logger = logger.With().Str(constants.KeyProcess, "creating request").Logger()
	req, err := http.NewRequestWithContext(c, http.MethodPost, o.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	req.Header.Set(inHttp.HeaderContentType, inHttp.ValueApplicationJson)
	if token := auth.TokenFromContext(c); token != "" {
		req.Header.Set(inHttp.HeaderAuthorization, "Bearer "+token)
	}
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(inHttp.HeaderRequestID, requestID)
	}
	if idempotencyKey != "" {
		req.Header.Set(inHttp.HeaderIdempotencyKey, idempotencyKey)
	}

	logger = logger.With().Str(constants.KeyProcess, "sending request to order service").Logger()
	logger.Info().Msg("sending request to order service")
	resp, err := o.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request to order service with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	defer resp.Body.Close()
	logger.Info().Int("statusCode", resp.StatusCode).Msg("received response from order service")

	result := envelope{}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("failed decoding response with status=%d error=%w", resp.StatusCode, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = decodeError(resp.StatusCode, result)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Order{}, err
	}

	data := struct {
		Order response.Order `json:"order"`
	}{}
	if err = json.Unmarshal(result.Data, &data); err != nil {
		err = fmt.Errorf("failed decoding order with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Str(constants.KeyOrderID, data.Order.ID.String()).Msg("created order")

	return data.Order, nil
}

// decodeError turns a failed envelope back into the error the order
// service raised, keeping the typed stock errors intact.
func decodeError(statusCode int, result envelope) error {
	switch result.Code {
	case inErrors.CodeInsufficientStock:
		data := stockData{}
		if err := json.Unmarshal(result.Data, &data); err == nil {
			return &inErrors.InsufficientStockError{
				ProductID: data.ProductID,
				Requested: data.Requested,
				Available: data.Available,
			}
		}
	case inErrors.CodeProductUnavailable:
		data := stockData{}
		if err := json.Unmarshal(result.Data, &data); err == nil {
			return &inErrors.ProductUnavailableError{ProductID: data.ProductID}
		}
	}
	if sentinel := inErrors.FromCode(result.Code); sentinel != nil {
		return fmt.Errorf("order service responded with status=%d: %w", statusCode, sentinel)
	}
	return fmt.Errorf("order service responded with status=%d message=%s", statusCode, result.Message)
}
