package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-express/pkg/rabbitmq"

	"github.com/rs/zerolog"
)

// Subscriber consumes ready notices and hands them to the delivery stub.
// It declares its own exclusive queue bound to the fanout exchange, so each
// running subscriber sees every notice.
type Subscriber struct {
	rmq      *rabbitmq.RabbitMQ
	notifier *Notifier
	log      zerolog.Logger
}

func NewSubscriber(rmq *rabbitmq.RabbitMQ, notifier *Notifier, log zerolog.Logger) *Subscriber {
	return &Subscriber{rmq: rmq, notifier: notifier, log: log}
}

// Run consumes until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	q, err := s.rmq.Channel.QueueDeclare(
		"",    // name, server generated
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = s.rmq.Channel.QueueBind(
		q.Name,
		"", // routing key (fanout ignores it)
		rabbitmq.NotificationsExchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	deliveries, err := s.rmq.Channel.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	s.log.Info().Str("action", "subscriber_started").Msg("notification subscriber running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var notice Notice
			if err := json.Unmarshal(msg.Body, &notice); err != nil {
				s.log.Error().Err(err).Str("action", "notice_malformed").Msg("dropping unparseable notice")
				continue
			}
			s.notifier.Deliver(notice)
		}
	}
}

// Notifier is the stand-in for the external email/SMS collaborator: it logs
// what would be sent. Failures here are nobody's problem but the log's.
type Notifier struct {
	log zerolog.Logger
}

func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Deliver(notice Notice) {
	if notice.Email != "" {
		n.log.Info().Str("action", "email_sent").
			Str("transaction_id", notice.TransactionID).
			Str("to", notice.Email).
			Msgf("Hi %s, your order %s from %s is ready for pickup!", notice.RecipientName, notice.TransactionID, notice.StallName)
	}
	if notice.ContactNumber != "" {
		n.log.Info().Str("action", "sms_sent").
			Str("transaction_id", notice.TransactionID).
			Str("to", notice.ContactNumber).
			Msgf("Order %s ready for pickup", notice.TransactionID)
	}
}
