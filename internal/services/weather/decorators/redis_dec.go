package decorators

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

type weatherFetcher interface {
	Fetch(ctx context.Context, city string) (models.CallResult, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

// CachedService serves repeated city queries from cache. Failures are
// never cached.
type CachedService struct {
	inner  weatherFetcher
	cache  cacheClient[models.CallResult]
	logger zerolog.Logger
}

func NewCachedService(
	inner weatherFetcher,
	cache cacheClient[models.CallResult],
	logger zerolog.Logger,
) *CachedService {
	return &CachedService{inner: inner, cache: cache, logger: logger}
}

func CacheKey(city string) string {
	return fmt.Sprintf("weather:%s", strings.ToLower(strings.TrimSpace(city)))
}

func (s *CachedService) Fetch(ctx context.Context, city string) (models.CallResult, error) {
	key := CacheKey(city)

	// Try cache
	data, err := s.cache.Get(ctx, key)
	if err == nil {
		s.logger.Debug().
			Ctx(ctx).
			Str("city", city).
			Str("key", key).
			Msg("cache hit")
		return data, nil
	}
	s.logger.Debug().
		Ctx(ctx).
		Str("city", city).
		Str("key", key).
		Err(err).
		Msg("cache miss")

	// Fallback to inner service
	data, err = s.inner.Fetch(ctx, city)
	if err != nil {
		return models.CallResult{}, err
	}

	// Populate cache
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.logger.Error().
			Ctx(ctx).
			Str("city", city).
			Str("key", key).
			Err(err).
			Msg("cache set failed")
	}

	return data, nil
}
