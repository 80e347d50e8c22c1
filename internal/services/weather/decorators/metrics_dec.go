package decorators

import (
	"context"
	"time"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
	"github.com/Nazarious-ucu/weather-threads/internal/services/metrics"
)

type unitObserver interface {
	ObserveUnit(status string, d time.Duration)
}

// MeteredService records the latency and outcome of every fetch.
type MeteredService struct {
	inner    weatherFetcher
	observer unitObserver
}

func NewMeteredService(inner weatherFetcher, observer unitObserver) *MeteredService {
	return &MeteredService{inner: inner, observer: observer}
}

func (s *MeteredService) Fetch(ctx context.Context, city string) (models.CallResult, error) {
	start := time.Now()
	data, err := s.inner.Fetch(ctx, city)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
	}
	s.observer.ObserveUnit(status, time.Since(start))

	return data, err
}
