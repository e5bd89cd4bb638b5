package service

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"github.com/Alturino/checkout/internal/cache"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/domain"
	inErrors "github.com/Alturino/checkout/internal/errors"
)

const claimAttempts = 2

// idempotencyRecord is stored under the claimed key. OrderID stays nil
// while the first request is still in flight.
type idempotencyRecord struct {
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

// idempotencyClaim holds either a fresh claim on key or the id of the
// order an earlier request already created under it.
type idempotencyClaim struct {
	key        string
	replayedID *uuid.UUID
}

// IdempotencyCacheKey scopes key to userID so two users can never collide
// on the same client generated key.
func IdempotencyCacheKey(userID uuid.UUID, key string) string {
	sum := blake2b.Sum256([]byte(userID.String() + ":" + key))
	return cache.Key(cache.IdempotencyKeyPrefix, hex.EncodeToString(sum[:]))
}

func (svc *OrderService) claimIdempotencyKey(
	c context.Context,
	userID uuid.UUID,
	key string,
) (idempotencyClaim, error) {
	cacheKey := IdempotencyCacheKey(userID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService claimIdempotencyKey").
		Str(constants.KeyIdempotencyKey, key).
		Str(constants.KeyCacheKey, cacheKey).
		Logger()

	for attempt := 0; attempt < claimAttempts; attempt++ {
		logger.Trace().Msg("claiming idempotency key")
		claimed, err := svc.cache.SetNX(c, cacheKey, idempotencyRecord{}, svc.cfg.IdempotencyClaimTTL)
		if err != nil {
			return idempotencyClaim{}, inErrors.StorageFailure(
				fmt.Errorf("failed claiming idempotency key with error=%w", err),
			)
		}
		if claimed {
			logger.Trace().Msg("claimed idempotency key")
			return idempotencyClaim{key: cacheKey}, nil
		}

		record := idempotencyRecord{}
		found, err := svc.cache.Get(c, cacheKey, &record)
		if err != nil {
			return idempotencyClaim{}, inErrors.StorageFailure(
				fmt.Errorf("failed finding idempotency key with error=%w", err),
			)
		}
		if !found {
			// released by a failed attempt between SetNX and Get
			continue
		}
		if record.OrderID == nil {
			return idempotencyClaim{}, inErrors.ErrDuplicateOrder
		}

		logger.Trace().Str(constants.KeyOrderID, record.OrderID.String()).Msg("idempotency key already settled")
		return idempotencyClaim{key: cacheKey, replayedID: record.OrderID}, nil
	}
	return idempotencyClaim{}, inErrors.ErrDuplicateOrder
}

// settleIdempotencyKey records the created order under key, or releases
// the key when creation failed so the client may retry.
func (svc *OrderService) settleIdempotencyKey(c context.Context, key string, order domain.Order, err error) {
	c = context.WithoutCancel(c)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "OrderService settleIdempotencyKey").
		Str(constants.KeyCacheKey, key).
		Logger()

	if err != nil {
		if err := svc.cache.Delete(c, key); err != nil {
			logger.Error().Err(err).Msg("failed releasing idempotency key")
			return
		}
		logger.Trace().Msg("released idempotency key")
		return
	}

	record := idempotencyRecord{OrderID: &order.ID}
	if err := svc.cache.Set(c, key, record, svc.cfg.IdempotencyTTL); err != nil {
		logger.Error().Err(err).Msg("failed settling idempotency key")
		return
	}
	logger.Trace().Str(constants.KeyOrderID, order.ID.String()).Msg("settled idempotency key")
}
