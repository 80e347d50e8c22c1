package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/weather-threads/internal/config"
	"github.com/Nazarious-ucu/weather-threads/internal/dispatcher"
	http2 "github.com/Nazarious-ucu/weather-threads/internal/handlers/http"
	"github.com/Nazarious-ucu/weather-threads/internal/models"
	"github.com/Nazarious-ucu/weather-threads/internal/scheduler"
	"github.com/Nazarious-ucu/weather-threads/internal/services/cache"
	loggerT "github.com/Nazarious-ucu/weather-threads/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/weather-threads/internal/services/metrics"
	serviceWeather "github.com/Nazarious-ucu/weather-threads/internal/services/weather"
	"github.com/Nazarious-ucu/weather-threads/internal/services/weather/decorators"
	fLogger "github.com/Nazarious-ucu/weather-threads/pkg/logger"
)

const (
	shutdownTimeout = 5 * time.Second
	pingTimeout     = 2 * time.Second
)

// ServiceContainer holds initialized dependencies for one command.
type ServiceContainer struct {
	Dispatcher *dispatcher.Dispatcher
	Sinks      []dispatcher.Sink

	fileLogger *zap.Logger
	fileCloser io.Closer
	redis      *redis.Client
	rabbitConn *rabbitmq.Conn
	publisher  *rabbitmq.Publisher
}

// App ties together config, logger, and metrics for every command.
type App struct {
	cfg        config.Config
	l          zerolog.Logger
	m          *metricsSvc.Metrics
	httpClient serviceWeather.HTTPClient
}

type Option func(*App)

// WithHTTPClient replaces the HTTP client used to reach OpenWeatherMap.
func WithHTTPClient(c serviceWeather.HTTPClient) Option {
	return func(a *App) {
		a.httpClient = c
	}
}

// New prepares a new App with given config, zerolog logger, and metrics.
func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics, opts ...Option) *App {
	a := &App{
		cfg: cfg,
		l:   logger,
		m:   met,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run fetches cities once, printing results to stdout and failures to
// stderr. No connection of any kind is opened when cities is empty.
func (a *App) Run(ctx context.Context, cities []string, stdout, stderr io.Writer) (dispatcher.Summary, error) {
	if len(cities) == 0 {
		a.l.Debug().Msg("no cities requested")
		return dispatcher.Summary{}, nil
	}

	srvContainer, err := a.Init(ctx)
	if err != nil {
		return dispatcher.Summary{}, err
	}
	defer a.shutdownQuietly(srvContainer)

	return a.execute(ctx, srvContainer, cities, stdout, stderr)
}

// Watch runs the fan-out immediately and then on every tick of spec until
// ctx is cancelled.
func (a *App) Watch(ctx context.Context, spec string, cities []string, stdout, stderr io.Writer) error {
	if err := scheduler.ValidateSpec(spec); err != nil {
		return err
	}

	srvContainer, err := a.Init(ctx)
	if err != nil {
		return err
	}
	defer a.shutdownQuietly(srvContainer)

	job := func(jobCtx context.Context) {
		if _, err := a.execute(jobCtx, srvContainer, cities, stdout, stderr); err != nil {
			a.l.Error().Err(err).Msg("scheduled run failed")
		}
	}

	job(ctx)

	sch := scheduler.New(spec, job, a.l)
	if err := sch.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.l.Info().Msg("shutdown signal received, stopping scheduler")
	sch.Stop()
	return nil
}

// Serve exposes the fan-out over HTTP until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srvContainer, err := a.Init(ctx)
	if err != nil {
		return err
	}
	defer a.shutdownQuietly(srvContainer)

	srv := &http.Server{
		Addr:        a.cfg.ServerAddress(),
		Handler:     a.NewRouter(srvContainer),
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.l.Info().Str("http_addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			return err
		}
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown HTTP server")
		return err
	}
	a.l.Info().Msg("HTTP server stopped")
	return nil
}

// NewRouter mounts /weather and /metrics.
func (a *App) NewRouter(srvContainer *ServiceContainer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.m.HTTPMiddleware())

	weatherHandler := http2.NewHandler(collector{app: a, container: srvContainer}, a.cfg.Server.MaxCities)
	router.GET("/weather", weatherHandler.GetWeather)
	router.GET("/metrics", gin.WrapH(a.m.Handler()))

	return router
}

// Init builds the fetch chain and the optional result publisher.
func (a *App) Init(ctx context.Context) (*ServiceContainer, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	a.l.Debug().
		Str("api_url", a.cfg.OpenWeatherMapURL).
		Dur("request_timeout", a.cfg.Fetch.RequestTimeout).
		Int("max_concurrency", a.cfg.Fetch.MaxConcurrency).
		Uint("retry_attempts", a.cfg.Fetch.RetryAttempts).
		Bool("breaker", a.cfg.Breaker.Enabled).
		Bool("redis", a.cfg.Redis.Enabled).
		Bool("rabbitmq", a.cfg.RabbitMQ.Enabled).
		Msg("initializing weather-threads")

	srvContainer := &ServiceContainer{}

	fileLogger, fileCloser, err := fLogger.NewFileLogger(a.cfg.Log.HTTPPath, "weather-threads-http")
	if err != nil {
		return nil, fmt.Errorf("open HTTP log: %w", err)
	}
	srvContainer.fileLogger = fileLogger
	srvContainer.fileCloser = fileCloser

	httpClient := a.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: loggerT.NewRoundTripper(fileLogger, nil)}
	}

	openWeather, err := serviceWeather.NewClientOpenWeatherMap(
		a.cfg.OpenWeatherMapAPIKey,
		a.cfg.OpenWeatherMapURL,
		httpClient,
		a.l,
	)
	if err != nil {
		return nil, err
	}

	var fetcher interface {
		Fetch(ctx context.Context, city string) (models.CallResult, error)
	} = openWeather

	if a.cfg.Breaker.Enabled {
		fetcher = serviceWeather.NewBreakerClient("OpenWeatherMap", serviceWeather.BreakerConfig{
			TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
			TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
			RepeatNumber: a.cfg.Breaker.RepeatNumber,
		}, fetcher)
	}

	if a.cfg.Fetch.RetryAttempts > 1 {
		fetcher = decorators.NewRetryService(fetcher, a.cfg.Fetch.RetryAttempts, a.cfg.Fetch.RetryDelay, a.l)
	}

	if a.cfg.Redis.Enabled {
		srvContainer.redis = newRedisConnection(a.cfg.Redis.Address(), a.cfg.Redis.DbType)
		a.pingRedis(ctx, srvContainer.redis)

		cacheMetrics := cache.NewMetricsDecorator[models.CallResult](
			cache.NewRedisClient[models.CallResult](
				srvContainer.redis,
				a.l,
				time.Duration(a.cfg.Redis.LiveTime)*time.Minute,
			),
			a.m,
		)
		fetcher = decorators.NewCachedService(fetcher, cacheMetrics, a.l)
	}

	fetcher = decorators.NewMeteredService(fetcher, a.m)

	srvContainer.Dispatcher = dispatcher.New(fetcher, dispatcher.Options{
		UnitTimeout:    a.cfg.Fetch.RequestTimeout,
		MaxConcurrency: a.cfg.Fetch.MaxConcurrency,
	}, a.l)

	if a.cfg.RabbitMQ.Enabled {
		if err := a.setupRabbit(srvContainer); err != nil {
			a.shutdownQuietly(srvContainer)
			return nil, err
		}
	}

	return srvContainer, nil
}

// Shutdown releases connections and syncs the HTTP file logger.
func (a *App) Shutdown(srvContainer *ServiceContainer) error {
	var errs []error

	if srvContainer.publisher != nil {
		srvContainer.publisher.Close()
	}
	if srvContainer.rabbitConn != nil {
		if err := srvContainer.rabbitConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close RabbitMQ connection: %w", err))
		}
	}
	if srvContainer.redis != nil {
		if err := srvContainer.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close Redis client: %w", err))
		}
	}
	if srvContainer.fileLogger != nil {
		if err := srvContainer.fileLogger.Sync(); err != nil {
			a.l.Debug().Err(err).Msg("failed to sync file logger")
		}
	}
	if srvContainer.fileCloser != nil {
		if err := srvContainer.fileCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close HTTP log: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (a *App) shutdownQuietly(srvContainer *ServiceContainer) {
	if err := a.Shutdown(srvContainer); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
	}
}

func (a *App) execute(
	ctx context.Context,
	srvContainer *ServiceContainer,
	cities []string,
	stdout, stderr io.Writer,
) (dispatcher.Summary, error) {
	a.m.ObserveRun()

	sinks := append([]dispatcher.Sink{dispatcher.NewConsolePrinter(stdout, stderr)}, srvContainer.Sinks...)
	return srvContainer.Dispatcher.Execute(ctx, cities, sinks...)
}

func (a *App) pingRedis(ctx context.Context, client *redis.Client) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.l.Warn().Err(err).Msg("redis is unreachable, every lookup will miss")
	}
}

func newRedisConnection(connString string, dbType int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: connString, DB: dbType})
}

// collector adapts the dispatcher to the HTTP handler and counts runs.
type collector struct {
	app       *App
	container *ServiceContainer
}

func (c collector) Collect(ctx context.Context, cities []string) []models.Result {
	c.app.m.ObserveRun()
	results, err := c.container.Dispatcher.Collect(ctx, cities, c.container.Sinks...)
	if err != nil {
		c.app.l.Error().Err(err).Msg("HTTP run failed")
	}
	return results
}
