package producers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/weather-threads/internal/models"
	"github.com/Nazarious-ucu/weather-threads/pkg/messaging"
)

type publisher interface {
	PublishWithContext(
		ctx context.Context,
		data []byte,
		routingKeys []string,
		optionFuncs ...func(*rabbitmq.PublishOptions),
	) error
}

// Producer publishes every aggregated result to the weather exchange.
type Producer struct {
	prod publisher
	log  zerolog.Logger
	now  func() time.Time
}

func NewProducer(prod publisher, logger zerolog.Logger) *Producer {
	return &Producer{
		prod: prod,
		log:  logger.With().Str("component", "Producer").Logger(),
		now:  time.Now,
	}
}

func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := p.prod.PublishWithContext(
		ctx,
		body,
		[]string{routingKey},
		rabbitmq.WithPublishOptionsContentType("application/json"),
		rabbitmq.WithPublishOptionsPersistentDelivery,
		rabbitmq.WithPublishOptionsExchange(messaging.ExchangeName),
	); err != nil {
		p.log.Error().Ctx(ctx).Err(err).Str("routing_key", routingKey).Msg("failed to publish message")
		return err
	}
	p.log.Debug().Ctx(ctx).Str("routing_key", routingKey).Msg("message published")
	return nil
}

// Handle makes Producer usable as an aggregation sink.
func (p *Producer) Handle(ctx context.Context, r models.Result) error {
	event := NewEvent(r, p.now())

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Ctx(ctx).Err(err).Msg("failed to marshal weather event")
		return err
	}

	routingKey := messaging.ResultRoutingKey
	if !r.OK() {
		routingKey = messaging.FailureRoutingKey
	}
	return p.Publish(ctx, routingKey, body)
}

func NewEvent(r models.Result, at time.Time) messaging.WeatherResultEvent {
	event := messaging.WeatherResultEvent{
		RunID:     r.RunID,
		Query:     r.Query,
		FetchedAt: at.UTC(),
	}
	if !r.OK() {
		event.Error = r.Err.Error()
		return event
	}
	event.Weather = &messaging.Weather{
		Temperature: r.CallResult.Temperature,
		City:        r.CallResult.City,
		Description: r.CallResult.Weather,
	}
	return event
}
