package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

const malformedBodyFormat = "Malformed data encountered while fetching weather data for %s"

var ErrInvalidURL = errors.New("invalid weather API URL")

// ClientOpenWeatherMap fetches current weather from the OpenWeatherMap API.
type ClientOpenWeatherMap struct {
	apiKey  string
	baseURL *url.URL
	client  HTTPClient
	logger  zerolog.Logger
}

// NewClientOpenWeatherMap parses apiURL once so that every later request
// URL is known to be well formed.
func NewClientOpenWeatherMap(apiKey, apiURL string,
	httpClient HTTPClient, logger zerolog.Logger,
) (*ClientOpenWeatherMap, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURL, apiURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w %q: scheme and host are required", ErrInvalidURL, apiURL)
	}
	return &ClientOpenWeatherMap{
		apiKey:  apiKey,
		baseURL: u,
		client:  httpClient,
		logger:  logger.With().Str("component", "OpenWeatherMap").Logger(),
	}, nil
}

// RequestURL returns the GET URL used for city.
func (s *ClientOpenWeatherMap) RequestURL(city string) string {
	u := *s.baseURL
	q := u.Query()
	q.Set("q", city)
	q.Set("appid", s.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchRaw performs the GET and returns the whole body. Transport and read
// failures are logged and leave whatever was received so far, possibly
// nothing. A body that is not valid UTF-8 is replaced by a placeholder
// naming the city.
func (s *ClientOpenWeatherMap) FetchRaw(ctx context.Context, city string) string {
	s.logger.Debug().
		Ctx(ctx).
		Str("city", city).
		Msg("fetching weather data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.RequestURL(city), nil)
	if err != nil {
		s.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Msg("failed to create HTTP request")
		return ""
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Msg("error fetching weather data")
		return ""
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Error().
				Ctx(ctx).
				Err(cerr).
				Str("city", city).
				Msg("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().
			Ctx(ctx).
			Str("city", city).
			Str("status", resp.Status).
			Msg("OpenWeatherMap API returned non-200 status")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Warn().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Int("bytes_read", len(body)).
			Msg("error reading weather data")
	}

	if !utf8.Valid(body) {
		s.logger.Warn().
			Ctx(ctx).
			Str("city", city).
			Msg("weather data is not valid UTF-8")
		return fmt.Sprintf(malformedBodyFormat, city)
	}

	return string(body)
}

// Fetch downloads and parses the weather for city.
func (s *ClientOpenWeatherMap) Fetch(ctx context.Context, city string) (models.CallResult, error) {
	start := time.Now()

	data, err := ParseCallResult(s.FetchRaw(ctx, city))
	if err != nil {
		s.logger.Error().
			Ctx(ctx).
			Err(err).
			Str("city", city).
			Msg("failed to parse weather data")
		return models.CallResult{}, fmt.Errorf("weather data for %s: %w", city, err)
	}

	s.logger.Info().
		Ctx(ctx).
		Str("city", city).
		Str("resolved_city", data.City).
		Dur("duration_ms", time.Since(start)).
		Msg("successfully fetched weather data")

	return data, nil
}
