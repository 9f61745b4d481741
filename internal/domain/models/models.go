package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle statuses. is_paid and is_complete are independent flags
// alongside the status; see Order.
const (
	StatusPending   = "Pending"
	StatusReady     = "Ready"
	StatusCancelled = "Cancelled"
)

// Menu item categories.
const (
	CategoryFood     = "Food"
	CategoryBeverage = "Beverage"
)

type User struct {
	ID            int64
	StudentID     string
	FullName      string
	ContactNumber string
	Email         string
	IsStaff       bool
	Blacklisted   bool
}

type Stall struct {
	ID              int64
	Name            string
	OwnerID         *int64
	AverageLeadTime int // minutes
	// ClosingMinutes is minutes after midnight, nil when the stall relies on
	// the storewide default.
	ClosingMinutes *int
}

type MenuItem struct {
	ID          int64
	StallID     int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
}

// Menu is a stall's items grouped the way the storefront lists them.
type Menu struct {
	Food      []MenuItem
	Beverages []MenuItem
}

// CartLine is one cart row joined with its menu item snapshot for display
// and totaling.
type CartLine struct {
	CartItemID int64
	ItemID     int64
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Subtotal is exact fixed-point arithmetic; cents are never lost to floats.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StallCart groups a user's cart rows per stall.
type StallCart struct {
	StallID   int64
	StallName string
	Lines     []CartLine
	Total     decimal.Decimal
}

type Voucher struct {
	ID             int64
	StallID        int64
	Code           string
	DiscountAmount decimal.Decimal
	IsActive       bool
}

type Order struct {
	ID            int64
	UserID        int64
	StallID       int64
	CreatedAt     time.Time
	Status        string
	PickupTime    time.Time
	TotalCost     decimal.Decimal
	TransactionID string
	IsPaid        bool
	VoucherID     *int64
	IsComplete    bool
}

// OrderItem is the immutable purchase snapshot; the unit price is captured
// at checkout so later menu edits do not rewrite history.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ItemID    int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// PlacedOrder is everything the checkout orchestrator persists once a
// payment session exists: the order row, its item snapshots, and the cart
// rows to consume, all in one transaction.
type PlacedOrder struct {
	UserID        int64
	StallID       int64
	PickupTime    time.Time
	TotalCost     decimal.Decimal
	TransactionID string
	VoucherID     *int64
	Lines         []CartLine
}
