package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/checkout/internal/constants"
	inHttp "github.com/Alturino/checkout/internal/http"
	"github.com/Alturino/checkout/internal/log"
	"github.com/Alturino/checkout/internal/otel"
)

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(inHttp.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c, span := otel.Tracer.Start(
			r.Context(),
			"middleware Logging",
			trace.WithAttributes(
				attribute.String(constants.KeyRequestID, requestID),
				attribute.String(constants.KeyRequestHost, r.Host),
				attribute.String(constants.KeyRequestIP, r.RemoteAddr),
				attribute.String(constants.KeyRequestMethod, r.Method),
				attribute.String(constants.KeyRequestURI, r.RequestURI),
				attribute.String(constants.KeyRequestURL, r.URL.String()),
			),
		)
		defer span.End()

		requestBody := map[string]interface{}{}
		if r.Body != nil {
			var buffer bytes.Buffer
			tee := io.TeeReader(r.Body, &buffer)
			_ = json.NewDecoder(tee).Decode(&requestBody)
			_, _ = io.Copy(io.Discard, tee)
			r.Body = io.NopCloser(&buffer)
		}

		header := r.Header.Clone()
		if header.Get(inHttp.HeaderAuthorization) != "" {
			header.Set(inHttp.HeaderAuthorization, "****")
		}

		logger := zerolog.Ctx(c).
			With().
			Str(constants.KeyRequestID, requestID).
			Dict(constants.KeyRequest, zerolog.Dict().
				Any(constants.KeyHeader, header).
				Str(constants.KeyRequestHost, r.Host).
				Str(constants.KeyRequestIP, r.RemoteAddr).
				Str(constants.KeyRequestMethod, r.Method).
				Str(constants.KeyRequestURI, r.RequestURI).
				Str(constants.KeyRequestURL, r.URL.String()).
				Any(constants.KeyBody, requestBody)).
			Str(constants.KeyTag, "middleware Logging").
			Logger()

		logger.Trace().Msg("attaching request value to context")
		c = log.AttachRequestIDToContext(c, requestID)
		c = logger.WithContext(c)
		r = r.WithContext(c)
		w.Header().Set(inHttp.HeaderRequestID, requestID)
		logger.Trace().Msg("attached request value to context")

		logger.Info().Msg("handling request")
		next.ServeHTTP(w, r)
	})
}
