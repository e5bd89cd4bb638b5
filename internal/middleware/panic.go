package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/otel"
)

func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "middleware RecoverPanic")
		defer span.End()

		logger := zerolog.Ctx(c).With().Str(constants.KeyTag, "middleware RecoverPanic").Logger()
		defer func() {
			if recovered := recover(); recovered != nil {
				err, ok := recovered.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", recovered)
				}
				otel.RecordError(err, span)
				logger.Error().Err(err).Stack().Msg("recovered from panic")
				inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
					"status":     inHttp.StatusFailed,
					"statusCode": http.StatusInternalServerError,
					"message":    http.StatusText(http.StatusInternalServerError),
				})
			}
		}()

		next.ServeHTTP(w, r.WithContext(c))
	})
}
