package weather

import (
	"context"
	"net/http"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

type client interface {
	Fetch(ctx context.Context, city string) (models.CallResult, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
