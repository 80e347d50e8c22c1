package metrics

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds Prometheus metric vectors for weather-threads.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	FetchUnitsTotal   *prometheus.CounterVec
	FetchUnitDuration *prometheus.HistogramVec
	RunsTotal         prometheus.Counter

	// Cache metrics
	CacheOperationsTotal   *prometheus.CounterVec
	CacheOperationDuration *prometheus.HistogramVec
}

// NewMetrics constructs and registers all metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		FetchUnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "fetch_units_total",
				Help:      "Total number of finished per-city fetch units",
			},
			[]string{"status"},
		),

		FetchUnitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "fetch_unit_duration_seconds",
				Help:      "Histogram of per-city fetch latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		RunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "runs_total",
				Help:      "Total number of dispatched fan-out runs",
			},
		),

		CacheOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: serviceName,
				Name:      "cache_operations_total",
				Help:      "Weather cache operations by outcome",
			},
			[]string{"operation", "result"},
		),

		CacheOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: serviceName,
				Name:      "cache_operation_duration_seconds",
				Help:      "Weather cache operation latencies",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FetchUnitsTotal,
		m.FetchUnitDuration,
		m.RunsTotal,
		m.CacheOperationsTotal,
		m.CacheOperationDuration,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveUnit records the outcome of one fetch unit.
func (m *Metrics) ObserveUnit(status string, d time.Duration) {
	m.FetchUnitsTotal.WithLabelValues(status).Inc()
	m.FetchUnitDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveRun counts one dispatched run.
func (m *Metrics) ObserveRun() {
	m.RunsTotal.Inc()
}

// ObserveLatency and IncrementCounter back cache.MetricsDecorator.
func (m *Metrics) ObserveLatency(op string, d time.Duration) {
	m.CacheOperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncrementCounter(op, result string) {
	m.CacheOperationsTotal.WithLabelValues(op, result).Inc()
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		labels := prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     c.FullPath(),
			"status_class": getStatusClass(c.Writer.Status()),
		}
		m.HTTPRequestsTotal.With(labels).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": c.FullPath(),
		}).Observe(d.Seconds())
	}
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}
