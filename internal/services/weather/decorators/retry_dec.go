package decorators

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
	"github.com/Nazarious-ucu/weather-threads/internal/services/weather"
)

// RetryService repeats a fetch whose body was empty or not JSON, which is
// what a transport failure or a truncated read leaves behind. Shape errors
// such as an unknown city are returned at once.
type RetryService struct {
	inner    weatherFetcher
	attempts uint
	delay    time.Duration
	logger   zerolog.Logger
}

// NewRetryService makes at most attempts calls per fetch. Zero is treated
// as one.
func NewRetryService(inner weatherFetcher, attempts uint, delay time.Duration, logger zerolog.Logger) *RetryService {
	if attempts == 0 {
		attempts = 1
	}
	return &RetryService{
		inner:    inner,
		attempts: attempts,
		delay:    delay,
		logger:   logger.With().Str("component", "RetryService").Logger(),
	}
}

func (s *RetryService) Fetch(ctx context.Context, city string) (models.CallResult, error) {
	return retry.DoWithData(
		func() (models.CallResult, error) {
			return s.inner.Fetch(ctx, city)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, weather.ErrInvalidJSON)
		}),
		retry.OnRetry(func(attempt uint, err error) {
			s.logger.Warn().
				Err(err).
				Str("city", city).
				Uint("attempt", attempt+1).
				Msg("retrying weather fetch")
		}),
	)
}
