package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
)

const timeoutDuration = 30 * time.Second

type weatherCollector interface {
	Collect(ctx context.Context, cities []string) []models.Result
}

type Handler struct {
	service   weatherCollector
	maxCities int
}

// NewHandler serves at most maxCities cities per request; zero or less
// lifts the limit.
func NewHandler(svc weatherCollector, maxCities int) *Handler {
	return &Handler{service: svc, maxCities: maxCities}
}

type cityResult struct {
	Query       string   `json:"query"`
	City        string   `json:"city,omitempty"`
	Weather     string   `json:"weather,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type weatherResponse struct {
	Results []cityResult `json:"results"`
	Failed  int          `json:"failed"`
}

// GetWeather fans out GET /weather?city=a&city=b (or city=a,b) and returns
// the results in arrival order.
func (h *Handler) GetWeather(c *gin.Context) {
	cities := splitCities(c.QueryArray("city"))
	if len(cities) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city query parameter is required"})
		return
	}
	if h.maxCities > 0 && len(cities) > h.maxCities {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("at most %d cities per request, got %d", h.maxCities, len(cities)),
		})
		return
	}
	ctxWithTimeout, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	results := h.service.Collect(ctxWithTimeout, cities)

	resp := weatherResponse{Results: make([]cityResult, 0, len(results))}
	for _, r := range results {
		item := cityResult{Query: r.Query}
		if r.OK() {
			temp := r.CallResult.Temperature
			item.City = r.CallResult.City
			item.Weather = r.CallResult.Weather
			item.Temperature = &temp
		} else {
			item.Error = r.Err.Error()
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}

	status := http.StatusOK
	if resp.Failed == len(resp.Results) {
		status = http.StatusBadGateway
	}
	c.JSON(status, resp)
}

func splitCities(values []string) []string {
	var cities []string
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cities = append(cities, c)
			}
		}
	}
	return cities
}
