// Package notify carries ready-for-pickup notices from the storefront to
// the delivery workers over RabbitMQ.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"campus-express/pkg/rabbitmq"

	"github.com/rs/zerolog"
)

// Notice is the message published when staff mark an order ready.
type Notice struct {
	TransactionID string `json:"transaction_id"`
	StallName     string `json:"stall_name"`
	RecipientName string `json:"recipient_name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
}

type Publisher struct {
	rmq *rabbitmq.RabbitMQ
	log zerolog.Logger
}

func NewPublisher(rmq *rabbitmq.RabbitMQ, log zerolog.Logger) *Publisher {
	return &Publisher{rmq: rmq, log: log}
}

// OrderReady fans the notice out to every subscriber.
func (p *Publisher) OrderReady(ctx context.Context, notice Notice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if err := p.rmq.Publish(ctx, rabbitmq.NotificationsExchange, "", body); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	p.log.Debug().Str("action", "notice_published").
		Str("transaction_id", notice.TransactionID).Msg("ready notice published")
	return nil
}
