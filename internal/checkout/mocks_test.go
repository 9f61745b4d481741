package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-express/internal/domain/models"
	"campus-express/internal/payment"
)

type mockUserStore struct {
	users map[int64]models.User
}

func (m *mockUserStore) ByID(_ context.Context, id int64) (models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return u, nil
}

type mockCatalogStore struct {
	stalls   map[int64]models.Stall
	vouchers map[string]models.Voucher // keyed by code, scoped to stall below
}

func (m *mockCatalogStore) Stall(_ context.Context, id int64) (models.Stall, error) {
	s, ok := m.stalls[id]
	if !ok {
		return models.Stall{}, errors.New("stall not found")
	}
	return s, nil
}

func (m *mockCatalogStore) ActiveVoucher(_ context.Context, code string, stallID int64) (models.Voucher, error) {
	v, ok := m.vouchers[code]
	if !ok || v.StallID != stallID || !v.IsActive {
		return models.Voucher{}, errors.New("voucher not found")
	}
	return v, nil
}

type mockCartStore struct {
	lines map[int64][]models.CartLine // by stall id
}

func (m *mockCartStore) ItemsFor(_ context.Context, _, stallID int64) ([]models.CartLine, error) {
	return m.lines[stallID], nil
}

type mockSequencer struct {
	next    int
	prefix  string
	failure error
}

func (m *mockSequencer) Next(_ context.Context, _ int64, _ time.Time) (string, error) {
	if m.failure != nil {
		return "", m.failure
	}
	m.next++
	return fmt.Sprintf("%s%03d", m.prefix, m.next), nil
}

type mockGateway struct {
	failure  error
	requests []payment.SessionRequest
}

func (m *mockGateway) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	m.requests = append(m.requests, req)
	if m.failure != nil {
		return payment.Session{}, m.failure
	}
	return payment.Session{
		ID:          "cs_" + req.Reference,
		RedirectURL: "https://pay.example/" + req.Reference,
	}, nil
}

type mockOrderStore struct {
	placed  []models.PlacedOrder
	failure error
}

func (m *mockOrderStore) CreatePlaced(_ context.Context, placed models.PlacedOrder) error {
	if m.failure != nil {
		return m.failure
	}
	m.placed = append(m.placed, placed)
	return nil
}
