package auth

import (
	"context"

	"github.com/google/uuid"

	inErrors "github.com/Alturino/checkout/internal/errors"
)

type (
	claimsKey struct{}
	tokenKey  struct{}
)

func AttachClaims(c context.Context, claims *Claims) context.Context {
	return context.WithValue(c, claimsKey{}, claims)
}

func ClaimsFromContext(c context.Context) (*Claims, bool) {
	claims, ok := c.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// AttachToken keeps the raw bearer token so outgoing calls can forward it.
func AttachToken(c context.Context, token string) context.Context {
	return context.WithValue(c, tokenKey{}, token)
}

func TokenFromContext(c context.Context) string {
	token, _ := c.Value(tokenKey{}).(string)
	return token
}

func UserIDFromContext(c context.Context) (uuid.UUID, error) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return uuid.Nil, inErrors.ErrEmptyAuth
	}
	return claims.UserID()
}

func IsAdmin(c context.Context) bool {
	claims, ok := ClaimsFromContext(c)
	return ok && claims.IsAdmin()
}
