package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const defaultOpenWeatherMapURL = "http://api.openweathermap.org/data/2.5/weather"

var ErrMissingAPIKey = errors.New("OPEN_WEATHER_MAP_API_KEY is not set")

type Fetch struct {
	RequestTimeout time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"10s"`
	MaxConcurrency int           `envconfig:"WEATHER_MAX_CONCURRENCY" default:"0"`
	RetryAttempts  uint          `envconfig:"WEATHER_RETRY_ATTEMPTS" default:"1"`
	RetryDelay     time.Duration `envconfig:"WEATHER_RETRY_DELAY" default:"500ms"`
}

type Server struct {
	Host        string `envconfig:"WEATHER_SERVER_HOST" default:"127.0.0.1"`
	Port        string `envconfig:"WEATHER_SERVER_PORT" default:"8082"`
	ReadTimeout int    `envconfig:"WEATHER_SERVER_TIMEOUT" default:"10"`
	MaxCities   int    `envconfig:"WEATHER_SERVER_MAX_CITIES" default:"50"`
}

type Breaker struct {
	Enabled      bool   `envconfig:"BREAKER_ENABLED" default:"false"`
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Redis struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	DbType   int    `envconfig:"REDIS_DB_TYPE" default:"0"`
	LiveTime int    `envconfig:"REDIS_LIVE_TIME" default:"10"`
}

type RabbitMQ struct {
	Enabled bool   `envconfig:"RABBITMQ_ENABLED" default:"false"`
	Host    string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port    string `envconfig:"RABBITMQ_PORT" default:"5672"`
	User    string `envconfig:"RABBITMQ_USER" default:"guest"`
	Pass    string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
}

type Log struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	Path     string `envconfig:"LOGS_PATH" default:""`
	HTTPPath string `envconfig:"HTTP_LOGS_PATH" default:""`
}

type Config struct {
	OpenWeatherMapAPIKey string `envconfig:"OPEN_WEATHER_MAP_API_KEY"`
	OpenWeatherMapURL    string `envconfig:"OPEN_WEATHER_MAP_URL" default:"http://api.openweathermap.org/data/2.5/weather"`

	Fetch    Fetch
	Server   Server
	Breaker  Breaker
	Redis    Redis
	RabbitMQ RabbitMQ
	Log      Log
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that make fetching impossible.
func (c *Config) Validate() error {
	if c.OpenWeatherMapAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.OpenWeatherMapURL == "" {
		c.OpenWeatherMapURL = defaultOpenWeatherMapURL
	}
	if c.Fetch.MaxConcurrency < 0 {
		return fmt.Errorf("WEATHER_MAX_CONCURRENCY must not be negative, got %d", c.Fetch.MaxConcurrency)
	}
	return nil
}

func (c *Config) ServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (r *RabbitMQ) Address() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Pass, r.Host, r.Port)
}

func (r *Redis) Address() string {
	return r.Host + ":" + r.Port
}
