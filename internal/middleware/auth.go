package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/constants"
	inErrors "github.com/Alturino/checkout/internal/errors"
	inHttp "github.com/Alturino/checkout/internal/http"
)

// Auth verifies the bearer token and attaches its claims to the request.
func Auth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(constants.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.HeaderAuthorization)
			if len(authorization) <= len(inHttp.BearerPrefix) ||
				!strings.EqualFold(authorization[:len(inHttp.BearerPrefix)], inHttp.BearerPrefix) {
				err := inErrors.ErrEmptyAuth
				logger.Info().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			token := strings.TrimSpace(authorization[len(inHttp.BearerPrefix):])
			claims, err := auth.VerifyToken(c, token, secret)
			if err != nil {
				logger.Info().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(c, w, err)
				return
			}

			logger = logger.With().Str(constants.KeyUserID, claims.Subject).Logger()
			c = logger.WithContext(c)
			c = auth.AttachClaims(c, claims)
			c = auth.AttachToken(c, token)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// RequireRole rejects requests whose claims do not carry role.
func RequireRole(role string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := r.Context()
			claims, ok := auth.ClaimsFromContext(c)
			if !ok {
				inHttp.WriteErrorResponse(c, w, inErrors.ErrEmptyAuth)
				return
			}
			if claims.Role != role {
				zerolog.Ctx(c).Info().Str("role", claims.Role).Msg(inErrors.ErrForbidden.Error())
				inHttp.WriteErrorResponse(c, w, inErrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
