// Package checkout turns a cart into a pending order: slot validation,
// voucher resolution, totaling, transaction-id allocation, the external
// payment session, and the final transactional persist.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-express/internal/domain/models"
	"campus-express/internal/payment"
	"campus-express/internal/pickup"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrBlacklisted = errors.New("account is blacklisted for unpaid orders")
	ErrEmptyCart   = errors.New("cart is empty for this stall")
	ErrStallClosed = errors.New("stall closed for ordering today")
	ErrInvalidSlot = errors.New("pickup slot is invalid or expired")
)

const warnInvalidVoucher = "Invalid or inactive voucher code."

// The stores the orchestrator depends on, each implemented by its feature
// package and faked in tests.
type (
	UserStore interface {
		ByID(ctx context.Context, id int64) (models.User, error)
	}
	CatalogStore interface {
		Stall(ctx context.Context, id int64) (models.Stall, error)
		ActiveVoucher(ctx context.Context, code string, stallID int64) (models.Voucher, error)
	}
	CartStore interface {
		ItemsFor(ctx context.Context, userID, stallID int64) ([]models.CartLine, error)
	}
	Sequencer interface {
		Next(ctx context.Context, stallID int64, now time.Time) (string, error)
	}
	Gateway interface {
		CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
	}
	OrderStore interface {
		CreatePlaced(ctx context.Context, placed models.PlacedOrder) error
	}
)

type Orchestrator struct {
	users   UserStore
	catalog CatalogStore
	cart    CartStore
	planner pickup.Planner
	seq     Sequencer
	gateway Gateway
	orders  OrderStore
	now     func() time.Time
	log     zerolog.Logger
}

// Deps bundles the orchestrator's collaborators. Now defaults to the wall
// clock; tests pin it.
type Deps struct {
	Users   UserStore
	Catalog CatalogStore
	Cart    CartStore
	Planner pickup.Planner
	Seq     Sequencer
	Gateway Gateway
	Orders  OrderStore
	Now     func() time.Time
}

func New(deps Deps, log zerolog.Logger) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		users:   deps.Users,
		catalog: deps.Catalog,
		cart:    deps.Cart,
		planner: deps.Planner,
		seq:     deps.Seq,
		gateway: deps.Gateway,
		orders:  deps.Orders,
		now:     now,
		log:     log,
	}
}

// Result is what the buyer needs to continue: where to pay, which
// transaction to watch, and any non-fatal warning (an ignored voucher).
type Result struct {
	RedirectURL   string
	TransactionID string
	Warning       string
}

// Begin runs one checkout end to end.
//
// The ordering is the correctness property: nothing local is persisted and
// the cart is never touched until the payment session exists. A gateway
// failure (including timeout) leaves the system exactly as it was. The one
// durable effect of a failed attempt is an advanced daily counter, which
// only costs a gap in that stall's sequence.
func (o *Orchestrator) Begin(ctx context.Context, userID, stallID int64, slotLabel, voucherCode string) (Result, error) {
	now := o.now()

	user, err := o.users.ByID(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve user: %w", err)
	}
	if user.Blacklisted {
		return Result{}, ErrBlacklisted
	}

	stall, err := o.catalog.Stall(ctx, stallID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve stall: %w", err)
	}

	lines, err := o.cart.ItemsFor(ctx, userID, stallID)
	if err != nil {
		return Result{}, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	// Slots are recomputed server-side; a label from a stale page must not
	// smuggle in an expired pickup time.
	var closing *pickup.Clock
	if stall.ClosingMinutes != nil {
		c := pickup.ClockFromMinutes(*stall.ClosingMinutes)
		closing = &c
	}
	if len(o.planner.Slots(now, stall.AverageLeadTime, closing)) == 0 {
		return Result{}, ErrStallClosed
	}
	pickupAt, err := o.planner.Resolve(slotLabel, now, stall.AverageLeadTime, closing)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}

	var (
		discount  = decimal.Zero
		voucherID *int64
		warning   string
	)
	if voucherCode != "" {
		voucher, err := o.catalog.ActiveVoucher(ctx, voucherCode, stallID)
		if err != nil {
			// Non-fatal: checkout proceeds at full price.
			warning = warnInvalidVoucher
		} else {
			discount = voucher.DiscountAmount
			voucherID = &voucher.ID
		}
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	total = total.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	transactionID, err := o.seq.Next(ctx, stallID, now)
	if err != nil {
		return Result{}, fmt.Errorf("allocate transaction id: %w", err)
	}

	session, err := o.gateway.CreateSession(ctx, payment.SessionRequest{
		AmountMinor: total.Mul(decimal.NewFromInt(100)).IntPart(),
		Description: fmt.Sprintf("Order from %s", stall.Name),
		Reference:   transactionID,
	})
	if err != nil {
		o.log.Warn().Err(err).Str("action", "session_failed").
			Str("transaction_id", transactionID).Msg("payment session not created, checkout aborted")
		return Result{}, err
	}

	placed := models.PlacedOrder{
		UserID:        userID,
		StallID:       stallID,
		PickupTime:    pickupAt,
		TotalCost:     total,
		TransactionID: transactionID,
		VoucherID:     voucherID,
		Lines:         lines,
	}
	if err := o.orders.CreatePlaced(ctx, placed); err != nil {
		// The provider session dangles, but the local order is the durable
		// record of intent; without it we must surface the failure.
		return Result{}, fmt.Errorf("persist order: %w", err)
	}

	o.log.Info().Str("action", "checkout_completed").
		Str("transaction_id", transactionID).
		Str("total", total.StringFixed(2)).
		Time("pickup", pickupAt).
		Msg("order placed, awaiting payment")

	return Result{
		RedirectURL:   session.RedirectURL,
		TransactionID: transactionID,
		Warning:       warning,
	}, nil
}
