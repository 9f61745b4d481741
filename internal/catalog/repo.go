// Package catalog is the read-only lookup over stalls, menu items, and
// vouchers. Catalog maintenance happens elsewhere; the ordering flow only
// ever reads.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"campus-express/internal/domain/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrStallNotFound   = errors.New("stall not found")
	ErrVoucherNotFound = errors.New("voucher not found")
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Stall(ctx context.Context, id int64) (models.Stall, error) {
	var (
		stall   models.Stall
		closing pgtype.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, average_lead_time, closing_time
		FROM stalls
		WHERE id = $1
	`, id).Scan(&stall.ID, &stall.Name, &stall.OwnerID, &stall.AverageLeadTime, &closing)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Stall{}, ErrStallNotFound
	}
	if err != nil {
		return models.Stall{}, fmt.Errorf("query stall: %w", err)
	}
	if closing.Valid {
		minutes := int(closing.Microseconds / int64(60_000_000))
		stall.ClosingMinutes = &minutes
	}
	return stall, nil
}

func (r *Repo) Stalls(ctx context.Context) ([]models.Stall, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, owner_id, average_lead_time, closing_time
		FROM stalls
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query stalls: %w", err)
	}
	defer rows.Close()

	var stalls []models.Stall
	for rows.Next() {
		var (
			stall   models.Stall
			closing pgtype.Time
		)
		if err := rows.Scan(&stall.ID, &stall.Name, &stall.OwnerID, &stall.AverageLeadTime, &closing); err != nil {
			return nil, fmt.Errorf("scan stall: %w", err)
		}
		if closing.Valid {
			minutes := int(closing.Microseconds / int64(60_000_000))
			stall.ClosingMinutes = &minutes
		}
		stalls = append(stalls, stall)
	}
	return stalls, rows.Err()
}

// MenuByStall lists a stall's items grouped for display.
func (r *Repo) MenuByStall(ctx context.Context, stallID int64) (models.Menu, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stall_id, name, description, price, category
		FROM menu_items
		WHERE stall_id = $1
		ORDER BY category, name
	`, stallID)
	if err != nil {
		return models.Menu{}, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var menu models.Menu
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.StallID, &item.Name, &item.Description, &item.Price, &item.Category); err != nil {
			return models.Menu{}, fmt.Errorf("scan menu item: %w", err)
		}
		switch item.Category {
		case models.CategoryBeverage:
			menu.Beverages = append(menu.Beverages, item)
		default:
			menu.Food = append(menu.Food, item)
		}
	}
	return menu, rows.Err()
}

// ActiveVoucher resolves a discount code scoped to one stall. Inactive codes
// and codes belonging to another stall both come back as not found.
func (r *Repo) ActiveVoucher(ctx context.Context, code string, stallID int64) (models.Voucher, error) {
	var v models.Voucher
	err := r.pool.QueryRow(ctx, `
		SELECT id, stall_id, code, discount_amount, is_active
		FROM vouchers
		WHERE code = $1 AND stall_id = $2 AND is_active
	`, code, stallID).Scan(&v.ID, &v.StallID, &v.Code, &v.DiscountAmount, &v.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Voucher{}, ErrVoucherNotFound
	}
	if err != nil {
		return models.Voucher{}, fmt.Errorf("query voucher: %w", err)
	}
	return v, nil
}
