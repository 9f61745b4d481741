// Package orders covers everything that happens to an order after checkout:
// buyer summaries, staff transitions, and the delinquency sweep.
package orders

import (
	"context"
	"errors"
	"fmt"

	"campus-express/internal/domain/models"
	"campus-express/internal/notify"

	"github.com/rs/zerolog"
)

// ErrNotAllowed is a generic denial: the caller learns nothing about why.
var ErrNotAllowed = errors.New("not allowed")

// Minutes of estimated wait per order still pending at a stall.
const waitPerPendingOrder = 10

// Store is the persistence surface the service needs.
type Store interface {
	ByTransactionID(ctx context.Context, transactionID string) (models.Order, error)
	ItemsFor(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	UnpaidByUser(ctx context.Context, userID int64) ([]models.Order, error)
	PendingCountForStall(ctx context.Context, stallID int64) (int, error)
	SetStatus(ctx context.Context, transactionID, status string) error
	SetComplete(ctx context.Context, transactionID string) error
	BlacklistDelinquents(ctx context.Context) (int64, error)
	StallName(ctx context.Context, stallID int64) (string, error)
}

// OwnerResolver answers which account owns a stall-scoped entity. One
// declared resolution per entity family, instead of probing attributes at
// runtime.
type OwnerResolver interface {
	StallOwner(ctx context.Context, stallID int64) (int64, error)
}

// UserSource fetches the contact details for notifications.
type UserSource interface {
	ByID(ctx context.Context, id int64) (models.User, error)
}

// ReadyNotifier dispatches a ready-for-pickup notice. Delivery is
// best-effort and must never roll back the order transition.
type ReadyNotifier interface {
	OrderReady(ctx context.Context, notice notify.Notice) error
}

type Service struct {
	store    Store
	owners   OwnerResolver
	users    UserSource
	notifier ReadyNotifier
	log      zerolog.Logger
}

func NewService(store Store, owners OwnerResolver, users UserSource, notifier ReadyNotifier, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		owners:   owners,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// Summary is the transaction page shown after redirect-back and on receipt
// lookups. It never mutates state; payment state advances only through the
// webhook.
type Summary struct {
	Order            models.Order
	Items            []models.OrderItem
	EstimatedMinutes int
}

func (s *Service) Summary(ctx context.Context, userID int64, transactionID string) (Summary, error) {
	order, err := s.store.ByTransactionID(ctx, transactionID)
	if err != nil {
		return Summary{}, err
	}
	if order.UserID != userID {
		// Do not reveal that the transaction exists for someone else.
		return Summary{}, ErrNotFound
	}

	items, err := s.store.ItemsFor(ctx, order.ID)
	if err != nil {
		return Summary{}, err
	}

	pending, err := s.store.PendingCountForStall(ctx, order.StallID)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Order:            order,
		Items:            items,
		EstimatedMinutes: waitPerPendingOrder * pending,
	}, nil
}

// Overview is the buyer's home data: full history, plus the unpaid orders a
// blacklisted user must settle before ordering again.
type Overview struct {
	Blacklisted bool
	Orders      []models.Order
	Unpaid      []models.Order
}

func (s *Service) Overview(ctx context.Context, user models.User) (Overview, error) {
	ov := Overview{Blacklisted: user.Blacklisted}

	orders, err := s.store.ListByUser(ctx, user.ID)
	if err != nil {
		return Overview{}, err
	}
	ov.Orders = orders

	if user.Blacklisted {
		unpaid, err := s.store.UnpaidByUser(ctx, user.ID)
		if err != nil {
			return Overview{}, err
		}
		ov.Unpaid = unpaid
	}
	return ov, nil
}

// MarkReady transitions an order to Ready and fires the pickup notice. Only
// staff who own the order's stall may do this.
func (s *Service) MarkReady(ctx context.Context, staff models.User, transactionID string) error {
	order, err := s.authorize(ctx, staff, transactionID)
	if err != nil {
		return err
	}

	if err := s.store.SetStatus(ctx, transactionID, models.StatusReady); err != nil {
		return err
	}

	buyer, err := s.users.ByID(ctx, order.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("action", "notify_skipped").
			Str("transaction_id", transactionID).Msg("could not resolve buyer for notification")
		return nil
	}

	stallName, err := s.store.StallName(ctx, order.StallID)
	if err != nil {
		s.log.Error().Err(err).Str("action", "notify_degraded").
			Str("transaction_id", transactionID).Msg("could not resolve stall name")
	}

	notice := notify.Notice{
		TransactionID: order.TransactionID,
		StallName:     stallName,
		RecipientName: buyer.FullName,
		Email:         buyer.Email,
		ContactNumber: buyer.ContactNumber,
	}
	if err := s.notifier.OrderReady(ctx, notice); err != nil {
		// Fire and forget: the Ready transition stands even when the notice
		// cannot be published.
		s.log.Error().Err(err).Str("action", "notify_failed").
			Str("transaction_id", transactionID).Msg("could not publish ready notice")
	}
	return nil
}

// Complete closes an order out. Deliberately independent of status: Ready
// does not imply completion and completion does not require Ready.
func (s *Service) Complete(ctx context.Context, staff models.User, transactionID string) error {
	if _, err := s.authorize(ctx, staff, transactionID); err != nil {
		return err
	}
	return s.store.SetComplete(ctx, transactionID)
}

func (s *Service) authorize(ctx context.Context, staff models.User, transactionID string) (models.Order, error) {
	order, err := s.store.ByTransactionID(ctx, transactionID)
	if err != nil {
		return models.Order{}, err
	}
	if !staff.IsStaff {
		return models.Order{}, ErrNotAllowed
	}
	owner, err := s.owners.StallOwner(ctx, order.StallID)
	if err != nil {
		return models.Order{}, fmt.Errorf("resolve owner: %w", err)
	}
	if owner == 0 || owner != staff.ID {
		return models.Order{}, ErrNotAllowed
	}
	return order, nil
}

// SweepBlacklist flags users with unpaid Pending orders. It is a periodic,
// eventually-consistent policy action, not part of any request path.
func (s *Service) SweepBlacklist(ctx context.Context) error {
	flagged, err := s.store.BlacklistDelinquents(ctx)
	if err != nil {
		return err
	}
	if flagged > 0 {
		s.log.Info().Str("action", "blacklist_sweep").Int64("flagged", flagged).
			Msg("users blacklisted for unpaid orders")
	}
	return nil
}
