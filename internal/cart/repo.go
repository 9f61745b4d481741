package cart

import (
	"context"
	"errors"
	"fmt"

	"campus-express/internal/domain/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound     = errors.New("menu item not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// Adjustment actions accepted by Adjust.
const (
	ActionIncrease = "increase"
	ActionDecrease = "decrease"
	ActionRemove   = "remove"
)

var ErrUnknownAction = errors.New("unknown cart action")

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Add puts one unit of a menu item into the user's cart. Re-adding an item
// already in the cart increments the quantity of the existing row; a user
// never holds two rows for the same item.
func (r *Repo) Add(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (user_id, stall_id, item_id, quantity)
		SELECT $1, stall_id, id, 1 FROM menu_items WHERE id = $2
		ON CONFLICT (user_id, item_id)
		DO UPDATE SET quantity = cart_items.quantity + 1
	`, userID, itemID)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Adjust applies a quantity action to one of the user's cart rows. Decrement
// below one is a deliberate no-op, not an error: duplicate decrease requests
// can never drive a quantity negative.
func (r *Repo) Adjust(ctx context.Context, userID, cartItemID int64, action string) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	switch action {
	case ActionIncrease:
		tag, err = r.pool.Exec(ctx, `
			UPDATE cart_items SET quantity = quantity + 1
			WHERE id = $1 AND user_id = $2
		`, cartItemID, userID)
	case ActionDecrease:
		_, err = r.pool.Exec(ctx, `
			UPDATE cart_items SET quantity = quantity - 1
			WHERE id = $1 AND user_id = $2 AND quantity > 1
		`, cartItemID, userID)
		return err
	case ActionRemove:
		tag, err = r.pool.Exec(ctx, `
			DELETE FROM cart_items WHERE id = $1 AND user_id = $2
		`, cartItemID, userID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if err != nil {
		return fmt.Errorf("adjust cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ItemsFor lists the user's cart rows for one stall, joined with the menu
// item data needed for totaling and snapshots.
func (r *Repo) ItemsFor(ctx context.Context, userID, stallID int64) ([]models.CartLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.item_id, m.name, m.price, c.quantity
		FROM cart_items c
		JOIN menu_items m ON m.id = c.item_id
		WHERE c.user_id = $1 AND c.stall_id = $2
		ORDER BY c.id
	`, userID, stallID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()
	return scanLines(rows)
}

// Grouped returns the user's whole cart, one group per stall with its exact
// decimal total.
func (r *Repo) Grouped(ctx context.Context, userID int64) ([]models.StallCart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.item_id, m.name, m.price, c.quantity, s.id, s.name
		FROM cart_items c
		JOIN menu_items m ON m.id = c.item_id
		JOIN stalls s ON s.id = c.stall_id
		WHERE c.user_id = $1
		ORDER BY s.id, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	var groups []models.StallCart
	for rows.Next() {
		var (
			line      models.CartLine
			stallID   int64
			stallName string
		)
		if err := rows.Scan(&line.CartItemID, &line.ItemID, &line.Name, &line.UnitPrice, &line.Quantity, &stallID, &stallName); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if len(groups) == 0 || groups[len(groups)-1].StallID != stallID {
			groups = append(groups, models.StallCart{
				StallID:   stallID,
				StallName: stallName,
				Total:     decimal.Zero,
			})
		}
		g := &groups[len(groups)-1]
		g.Lines = append(g.Lines, line)
		g.Total = g.Total.Add(line.Subtotal())
	}
	return groups, rows.Err()
}

type lineRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLines(rows lineRows) ([]models.CartLine, error) {
	var lines []models.CartLine
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.CartItemID, &line.ItemID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
