package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/constants"
	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/otel"
)

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	if c.Subject == "" {
		return uuid.Nil, inErrors.ErrEmptySubject
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed parsing subject=%s with error=%w", c.Subject, inErrors.ErrTokenInvalid)
	}
	return userID, nil
}

func (c *Claims) IsAdmin() bool {
	return c.Role == constants.RoleAdmin
}

func NewToken(userID uuid.UUID, role string, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.AppUserService,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{constants.AudienceUser},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed signing token with error=%w", err)
	}
	return signed, nil
}

func VerifyToken(c context.Context, token string, secret string) (*Claims, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "VerifyToken").
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	claims := &Claims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithAudience(constants.AudienceUser),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppUserService),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(constants.KeyProcess, "validating token").Logger()
	logger.Trace().Msg("validating token")
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return nil, err
	}
	if _, err = claims.UserID(); err != nil {
		otel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("validated token")

	return claims, nil
}
