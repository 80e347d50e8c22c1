package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by Get when no value is stored under the key.
var ErrMiss = errors.New("cache miss")

type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisClient keeps JSON copies of T in Redis, every key expiring after ttl.
type RedisClient[T any] struct {
	store  redisStore
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisClient[T any](store redisStore, logger zerolog.Logger, ttl time.Duration) *RedisClient[T] {
	return &RedisClient[T]{
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "RedisCache").Logger(),
	}
}

func (c *RedisClient[T]) Set(ctx context.Context, key string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("key", key).
			Msg("cache write failed")
		return fmt.Errorf("store %s: %w", key, err)
	}

	c.logger.Debug().
		Ctx(ctx).
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached")
	return nil
}

//nolint:ireturn
func (c *RedisClient[T]) Get(ctx context.Context, key string) (T, error) {
	var value T

	payload, err := c.store.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return value, fmt.Errorf("%w: %s", ErrMiss, key)
	case err != nil:
		c.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("key", key).
			Msg("cache read failed")
		return value, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal(payload, &value); err != nil {
		c.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("key", key).
			Msg("dropping undecodable cache entry")
		return value, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, nil
}
