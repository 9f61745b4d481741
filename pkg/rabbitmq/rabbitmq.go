package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"campus-express/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// NotificationsExchange carries order-ready notices to every subscriber.
const NotificationsExchange = "notifications_fanout"

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

// Connect dials RabbitMQ and declares the exchanges the storefront publishes
// to. Queues are declared by the consumers that own them.
func Connect(cfg config.RabbitMQ, log zerolog.Logger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		NotificationsExchange, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("action", "rabbitmq_connected").Msg("connected to RabbitMQ")
	return &RabbitMQ{Conn: conn, Channel: channel}, nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}

// Publish sends a persistent JSON message to the given exchange.
func (r *RabbitMQ) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.Channel.PublishWithContext(publishCtx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}
