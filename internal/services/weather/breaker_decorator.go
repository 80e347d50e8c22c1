package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

type BreakerConfig struct {
	TimeInterval time.Duration
	TimeTimeOut  time.Duration
	RepeatNumber uint32
}

// BreakerClient stops calling OpenWeatherMap after RepeatNumber consecutive
// upstream failures until TimeTimeOut has passed. Answers that only concern
// the requested city, such as an unknown name, and cancelled requests do not
// count against the upstream.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     cfg.TimeInterval,
		Timeout:      cfg.TimeTimeOut,
		IsSuccessful: upstreamHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.RepeatNumber
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func upstreamHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, context.Canceled)
}

// Fetch returns per-city errors unchanged; only breaker rejections and
// upstream failures are reported as the service being unavailable.
func (b *BreakerClient) Fetch(ctx context.Context, city string) (models.CallResult, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, city)
	})
	switch {
	case err == nil:
	case upstreamHealthy(err):
		return models.CallResult{}, err
	default:
		return models.CallResult{}, fmt.Errorf("%s unavailable: %w", b.name, err)
	}

	data, ok := result.(models.CallResult)
	if !ok {
		return models.CallResult{}, fmt.Errorf("%s returned unexpected result %T", b.name, result)
	}
	return data, nil
}

// State reports the breaker state, e.g. "closed", "open" or "half-open".
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}
