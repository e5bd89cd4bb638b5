package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	OrderItemsKeyPrefix  = "order:items"
	IdempotencyKeyPrefix = "order:idempotency"
)

type Cache interface {
	Get(c context.Context, key string, value any) (bool, error)
	Set(c context.Context, key string, value any, ttl time.Duration) error
	SetNX(c context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(c context.Context, key string) error
	Publish(c context.Context, channel string, value any) error
}

func Key(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

type redisCache struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, defaultTTL time.Duration) Cache {
	return &redisCache{client: client, defaultTTL: defaultTTL}
}

func (r *redisCache) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return r.defaultTTL
	}
	return ttl
}

// Get reports false without error on a miss.
func (r *redisCache) Get(c context.Context, key string, value any) (bool, error) {
	data, err := r.client.Get(c, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed getting key=%s with error=%w", key, err)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed unmarshaling key=%s with error=%w", key, err)
	}
	return true, nil
}

func (r *redisCache) Set(c context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed marshaling key=%s with error=%w", key, err)
	}
	if err = r.client.Set(c, key, data, r.ttl(ttl)).Err(); err != nil {
		return fmt.Errorf("failed setting key=%s with error=%w", key, err)
	}
	return nil
}

// SetNX stores value only when key is absent and reports whether it did.
func (r *redisCache) SetNX(c context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed marshaling key=%s with error=%w", key, err)
	}
	ok, err := r.client.SetNX(c, key, data, r.ttl(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("failed setting key=%s if absent with error=%w", key, err)
	}
	return ok, nil
}

func (r *redisCache) Delete(c context.Context, key string) error {
	if err := r.client.Del(c, key).Err(); err != nil {
		return fmt.Errorf("failed deleting key=%s with error=%w", key, err)
	}
	return nil
}

func (r *redisCache) Publish(c context.Context, channel string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed marshaling message for channel=%s with error=%w", channel, err)
	}
	if err = r.client.Publish(c, channel, data).Err(); err != nil {
		return fmt.Errorf("failed publishing to channel=%s with error=%w", channel, err)
	}
	return nil
}
