package checkout

import (
	"context"
	"testing"
	"time"

	"campus-express/internal/domain/models"
	"campus-express/internal/payment"
	"campus-express/internal/pickup"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manila = time.FixedZone("PST", 8*60*60)

const (
	buyerID = int64(4)
	stallX  = int64(2)
)

type fixture struct {
	users   *mockUserStore
	catalog *mockCatalogStore
	cart    *mockCartStore
	seq     *mockSequencer
	gateway *mockGateway
	orders  *mockOrderStore
	now     time.Time
	orch    *Orchestrator
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Cart {item A x2 @ 25.00, item B x1 @ 10.00} at a stall with a 15 minute
// lead time and the default 17:00 closing.
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	opening, err := pickup.ParseClock("09:00")
	require.NoError(t, err)
	closing, err := pickup.ParseClock("17:00")
	require.NoError(t, err)

	f := &fixture{
		users: &mockUserStore{users: map[int64]models.User{
			buyerID: {ID: buyerID, StudentID: "205001", FullName: "Alex Reyes"},
		}},
		catalog: &mockCatalogStore{
			stalls: map[int64]models.Stall{
				stallX: {ID: stallX, Name: "Stall X", AverageLeadTime: 15},
			},
			vouchers: map[string]models.Voucher{},
		},
		cart: &mockCartStore{lines: map[int64][]models.CartLine{
			stallX: {
				{CartItemID: 1, ItemID: 11, Name: "Item A", UnitPrice: price("25.00"), Quantity: 2},
				{CartItemID: 2, ItemID: 12, Name: "Item B", UnitPrice: price("10.00"), Quantity: 1},
			},
		}},
		seq:     &mockSequencer{prefix: "S02"},
		gateway: &mockGateway{},
		orders:  &mockOrderStore{},
		now:     now,
	}

	f.orch = New(Deps{
		Users:   f.users,
		Catalog: f.catalog,
		Cart:    f.cart,
		Planner: pickup.Planner{Opening: opening, DefaultClosing: closing},
		Seq:     f.seq,
		Gateway: f.gateway,
		Orders:  f.orders,
		Now:     func() time.Time { return f.now },
	}, zerolog.Nop())
	return f
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 9, hour, minute, 0, 0, manila)
}

func TestBeginHappyPath(t *testing.T) {
	f := newFixture(t, at(10, 3))

	res, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "")
	require.NoError(t, err)

	assert.Equal(t, "S02001", res.TransactionID)
	assert.Equal(t, "https://pay.example/S02001", res.RedirectURL)
	assert.Empty(t, res.Warning)

	// Gateway got the exact total in minor units.
	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, int64(6000), req.AmountMinor)
	assert.Equal(t, "Order from Stall X", req.Description)
	assert.Equal(t, "S02001", req.Reference)

	// Order persisted once, after the session, with the cart snapshot.
	require.Len(t, f.orders.placed, 1)
	placed := f.orders.placed[0]
	assert.True(t, placed.TotalCost.Equal(price("60.00")))
	assert.Equal(t, at(10, 40), placed.PickupTime)
	assert.Len(t, placed.Lines, 2)
	assert.Nil(t, placed.VoucherID)
}

func TestBeginRightNowSlotResolvesWithLeadTime(t *testing.T) {
	f := newFixture(t, at(10, 3))

	res, err := f.orch.Begin(context.Background(), buyerID, stallX, "Right Now (pick-up at 10:18)", "")
	require.NoError(t, err)
	require.Len(t, f.orders.placed, 1)

	assert.Equal(t, at(10, 18), f.orders.placed[0].PickupTime)
	assert.NotEmpty(t, res.RedirectURL)
}

func TestBeginVoucherDiscountApplied(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.catalog.vouchers["TREAT10"] = models.Voucher{
		ID: 5, StallID: stallX, Code: "TREAT10",
		DiscountAmount: price("10.00"), IsActive: true,
	}

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "TREAT10")
	require.NoError(t, err)

	require.Len(t, f.orders.placed, 1)
	assert.True(t, f.orders.placed[0].TotalCost.Equal(price("50.00")))
	require.NotNil(t, f.orders.placed[0].VoucherID)
	assert.Equal(t, int64(5), *f.orders.placed[0].VoucherID)
	assert.Equal(t, int64(5000), f.gateway.requests[0].AmountMinor)
}

func TestBeginDiscountClampedAtZero(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.cart.lines[stallX] = []models.CartLine{
		{CartItemID: 1, ItemID: 11, Name: "Item A", UnitPrice: price("50.00"), Quantity: 1},
	}
	f.catalog.vouchers["BIG75"] = models.Voucher{
		ID: 6, StallID: stallX, Code: "BIG75",
		DiscountAmount: price("75.00"), IsActive: true,
	}

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "BIG75")
	require.NoError(t, err)

	require.Len(t, f.orders.placed, 1)
	assert.True(t, f.orders.placed[0].TotalCost.IsZero(), "total must clamp to 0.00, never negative")
	assert.Equal(t, int64(0), f.gateway.requests[0].AmountMinor)
}

func TestBeginInvalidVoucherWarnsAndProceeds(t *testing.T) {
	f := newFixture(t, at(10, 3))

	res, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "NOPE")
	require.NoError(t, err)

	assert.Equal(t, warnInvalidVoucher, res.Warning)
	require.Len(t, f.orders.placed, 1)
	assert.True(t, f.orders.placed[0].TotalCost.Equal(price("60.00")), "no discount applied")
	assert.Nil(t, f.orders.placed[0].VoucherID)
}

func TestBeginForeignVoucherIgnored(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.catalog.vouchers["ELSEWHERE"] = models.Voucher{
		ID: 7, StallID: stallX + 1, Code: "ELSEWHERE",
		DiscountAmount: price("10.00"), IsActive: true,
	}

	res, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "ELSEWHERE")
	require.NoError(t, err)
	assert.Equal(t, warnInvalidVoucher, res.Warning)
	assert.True(t, f.orders.placed[0].TotalCost.Equal(price("60.00")))
}

func TestBeginGatewayFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.gateway.failure = payment.ErrSessionFailed

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "")
	assert.ErrorIs(t, err, payment.ErrSessionFailed)

	// Atomicity: no order, no snapshot, cart untouched.
	assert.Empty(t, f.orders.placed)
	assert.Len(t, f.cart.lines[stallX], 2)
}

func TestBeginEmptyCart(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.cart.lines[stallX] = nil

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.gateway.requests)
}

func TestBeginBlacklistedUserBlocked(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.users.users[buyerID] = models.User{ID: buyerID, Blacklisted: true}

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "")
	assert.ErrorIs(t, err, ErrBlacklisted)
	assert.Empty(t, f.gateway.requests)
	assert.Empty(t, f.orders.placed)
}

func TestBeginStaleSlotRejected(t *testing.T) {
	f := newFixture(t, at(10, 30))

	// 10:10 came from a page rendered earlier in the day.
	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:10", "")
	assert.ErrorIs(t, err, ErrInvalidSlot)
	assert.Empty(t, f.gateway.requests)
}

func TestBeginStallClosedForToday(t *testing.T) {
	// 16:50 with a 15 minute lead: no slot fits before the 17:00 close, so
	// checkout is rejected instead of producing a pickup past closing.
	f := newFixture(t, at(16, 50))

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "Right Now (pick-up at 17:05)", "")
	assert.ErrorIs(t, err, ErrStallClosed)
	assert.Empty(t, f.gateway.requests)
	assert.Empty(t, f.orders.placed)
}

func TestBeginSequencerFailureAbortsBeforeGateway(t *testing.T) {
	f := newFixture(t, at(10, 3))
	f.seq.failure = assert.AnError

	_, err := f.orch.Begin(context.Background(), buyerID, stallX, "10:40", "")
	assert.Error(t, err)
	assert.Empty(t, f.gateway.requests)
	assert.Empty(t, f.orders.placed)
}
