package app

import (
	"github.com/wagslane/go-rabbitmq"

	"github.com/Nazarious-ucu/weather-threads/internal/producers"
	"github.com/Nazarious-ucu/weather-threads/pkg/messaging"
)

func (a *App) setupRabbit(srvContainer *ServiceContainer) error {
	conn, err := rabbitmq.NewConn(
		a.cfg.RabbitMQ.Address(),
		rabbitmq.WithConnectionOptionsLogging,
	)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return err
	}
	srvContainer.rabbitConn = conn
	a.l.Info().Str("host", a.cfg.RabbitMQ.Host).Msg("connected to RabbitMQ")

	publisher, err := rabbitmq.NewPublisher(
		conn,
		rabbitmq.WithPublisherOptionsExchangeName(messaging.ExchangeName),
		rabbitmq.WithPublisherOptionsExchangeKind("topic"),
		rabbitmq.WithPublisherOptionsExchangeDeclare,
		rabbitmq.WithPublisherOptionsExchangeDurable,
		rabbitmq.WithPublisherOptionsLogging,
	)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to create RabbitMQ publisher")
		return err
	}
	srvContainer.publisher = publisher

	publisher.NotifyReturn(func(r rabbitmq.Return) {
		a.l.Warn().
			Str("routing_key", r.RoutingKey).
			Uint16("reply_code", r.ReplyCode).
			Msg("message returned from server")
	})

	srvContainer.Sinks = append(srvContainer.Sinks, producers.NewProducer(publisher, a.l))
	return nil
}
