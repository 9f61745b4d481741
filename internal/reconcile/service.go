// Package reconcile advances local payment state from the provider's
// asynchronous webhook events.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus-express/internal/payment"

	"github.com/rs/zerolog"
)

var (
	ErrBadSignature = errors.New("invalid webhook signature")
	ErrBadPayload   = errors.New("malformed webhook payload")
	ErrUnknownOrder = errors.New("no order for referenced transaction")
)

// OrderStore flips the paid flag. MarkPaid must be idempotent; the bool
// reports whether the transaction id matched an order at all.
type OrderStore interface {
	MarkPaid(ctx context.Context, transactionID string) (bool, error)
}

type Service struct {
	store         OrderStore
	webhookSecret string
	log           zerolog.Logger
}

func NewService(store OrderStore, webhookSecret string, log zerolog.Logger) *Service {
	return &Service{store: store, webhookSecret: webhookSecret, log: log}
}

// eventEnvelope mirrors the provider's nested webhook shape. The order
// reference rides inside the inner payment resource as the line-item
// description the checkout sent out.
type eventEnvelope struct {
	Data struct {
		Attributes struct {
			Type string `json:"type"`
			Data struct {
				Attributes struct {
					Description string `json:"description"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

const eventPaymentPaid = "payment.paid"

// HandleEvent verifies and applies one webhook delivery. Re-deliveries of
// an already-applied event succeed as no-ops. Events the service does not
// care about are accepted and ignored.
func (s *Service) HandleEvent(ctx context.Context, body []byte, signature string) error {
	if !payment.VerifySignature(body, signature, s.webhookSecret) {
		return ErrBadSignature
	}

	var event eventEnvelope
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if event.Data.Attributes.Type != eventPaymentPaid {
		s.log.Debug().Str("action", "event_ignored").
			Str("type", event.Data.Attributes.Type).Msg("webhook event type not handled")
		return nil
	}

	reference := event.Data.Attributes.Data.Attributes.Description
	if reference == "" {
		return fmt.Errorf("%w: event carries no order reference", ErrBadPayload)
	}

	found, err := s.store.MarkPaid(ctx, reference)
	if err != nil {
		return fmt.Errorf("apply payment event: %w", err)
	}
	if !found {
		s.log.Warn().Str("action", "order_missing").
			Str("transaction_id", reference).Msg("payment event for unknown order")
		return fmt.Errorf("%w: %s", ErrUnknownOrder, reference)
	}

	s.log.Info().Str("action", "order_paid").
		Str("transaction_id", reference).Msg("order marked paid")
	return nil
}
