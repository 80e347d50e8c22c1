package messaging

import "time"

type Weather struct {
	Temperature float64 `json:"temperature"`
	City        string  `json:"city"`
	Description string  `json:"description"`
}

// WeatherResultEvent is published once per fetched city.
// Weather is nil when Error is set.
type WeatherResultEvent struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Weather   *Weather  `json:"weather,omitempty"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
