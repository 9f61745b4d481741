package orders

import (
	"context"
	"errors"
	"fmt"

	"campus-express/internal/domain/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// CreatePlaced persists a checked-out order: the order row, one snapshot row
// per cart line, and deletion of the consumed cart rows, all inside a single
// transaction so an order can never exist without its items or leave stale
// cart rows behind. Callers invoke this only after a payment session exists.
func (r *Repo) CreatePlaced(ctx context.Context, placed models.PlacedOrder) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			user_id, stall_id, status, pickup_time, total_cost,
			transaction_id, is_paid, voucher_id, is_complete
		)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, FALSE)
		RETURNING id
	`, placed.UserID, placed.StallID, models.StatusPending, placed.PickupTime,
		placed.TotalCost, placed.TransactionID, placed.VoucherID,
	).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range placed.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, item_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, line.ItemID, line.Name, line.UnitPrice, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND stall_id = $2
	`, placed.UserID, placed.StallID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *Repo) ByTransactionID(ctx context.Context, transactionID string) (models.Order, error) {
	var o models.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, stall_id, created_at, status, pickup_time,
			total_cost, transaction_id, is_paid, voucher_id, is_complete
		FROM orders
		WHERE transaction_id = $1
	`, transactionID).Scan(&o.ID, &o.UserID, &o.StallID, &o.CreatedAt, &o.Status,
		&o.PickupTime, &o.TotalCost, &o.TransactionID, &o.IsPaid, &o.VoucherID, &o.IsComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

func (r *Repo) ItemsFor(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, item_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// UnpaidByUser backs the blacklisted home view: unpaid orders stay visible
// so the user can still settle them.
func (r *Repo) UnpaidByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.list(ctx, `WHERE user_id = $1 AND NOT is_paid ORDER BY created_at DESC`, userID)
}

func (r *Repo) list(ctx context.Context, tail string, args ...any) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, stall_id, created_at, status, pickup_time,
			total_cost, transaction_id, is_paid, voucher_id, is_complete
		FROM orders `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var list []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.StallID, &o.CreatedAt, &o.Status,
			&o.PickupTime, &o.TotalCost, &o.TransactionID, &o.IsPaid, &o.VoucherID, &o.IsComplete); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// PendingCountForStall feeds the wait estimate shown on the transaction
// summary (ten minutes per order still pending at the stall).
func (r *Repo) PendingCountForStall(ctx context.Context, stallID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders WHERE stall_id = $1 AND status = $2
	`, stallID, models.StatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending orders: %w", err)
	}
	return count, nil
}

// MarkPaid flips the paid flag for the order the provider references.
// Idempotent: re-delivered events update the same row to the same value.
// The bool reports whether any order matched.
func (r *Repo) MarkPaid(ctx context.Context, transactionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET is_paid = TRUE WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) SetStatus(ctx context.Context, transactionID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2 WHERE transaction_id = $1
	`, transactionID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) SetComplete(ctx context.Context, transactionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET is_complete = TRUE WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		return fmt.Errorf("complete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) StallName(ctx context.Context, stallID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM stalls WHERE id = $1`, stallID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query stall name: %w", err)
	}
	return name, nil
}

// StallOwner is the declared ownership resolution for every stall-scoped
// entity (orders, menu items, vouchers all answer through their stall).
func (r *Repo) StallOwner(ctx context.Context, stallID int64) (int64, error) {
	var ownerID *int64
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id FROM stalls WHERE id = $1
	`, stallID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stall owner: %w", err)
	}
	if ownerID == nil {
		return 0, nil
	}
	return *ownerID, nil
}

// BlacklistDelinquents flags every user still holding an unpaid Pending
// order. Returns how many users were newly flagged.
func (r *Repo) BlacklistDelinquents(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET blacklisted = TRUE
		WHERE NOT blacklisted AND id IN (
			SELECT user_id FROM orders WHERE NOT is_paid AND status = $1
		)
	`, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("blacklist sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
