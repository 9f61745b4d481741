package orders

import (
	"context"
	"errors"
	"testing"

	"campus-express/internal/domain/models"
	"campus-express/internal/notify"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders       map[string]models.Order
	items        map[int64][]models.OrderItem
	byUser       []models.Order
	unpaid       []models.Order
	pending      int
	statusSet    map[string]string
	completedSet []string
	flagged      int64
	flagErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    map[string]models.Order{},
		items:     map[int64][]models.OrderItem{},
		statusSet: map[string]string{},
	}
}

func (f *fakeStore) ByTransactionID(_ context.Context, transactionID string) (models.Order, error) {
	order, ok := f.orders[transactionID]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return order, nil
}

func (f *fakeStore) ItemsFor(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeStore) ListByUser(context.Context, int64) ([]models.Order, error) {
	return f.byUser, nil
}

func (f *fakeStore) UnpaidByUser(context.Context, int64) ([]models.Order, error) {
	return f.unpaid, nil
}

func (f *fakeStore) PendingCountForStall(context.Context, int64) (int, error) {
	return f.pending, nil
}

func (f *fakeStore) SetStatus(_ context.Context, transactionID, status string) error {
	f.statusSet[transactionID] = status
	return nil
}

func (f *fakeStore) SetComplete(_ context.Context, transactionID string) error {
	f.completedSet = append(f.completedSet, transactionID)
	return nil
}

func (f *fakeStore) BlacklistDelinquents(context.Context) (int64, error) {
	return f.flagged, f.flagErr
}

func (f *fakeStore) StallName(context.Context, int64) (string, error) {
	return "Lola's Lutong Bahay", nil
}

type fakeOwners struct {
	owner int64
}

func (f *fakeOwners) StallOwner(context.Context, int64) (int64, error) {
	return f.owner, nil
}

type fakeUserSource struct {
	users map[int64]models.User
}

func (f *fakeUserSource) ByID(_ context.Context, id int64) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, errors.New("no such user")
	}
	return user, nil
}

type fakeNotifier struct {
	notices []notify.Notice
	err     error
}

func (f *fakeNotifier) OrderReady(_ context.Context, notice notify.Notice) error {
	f.notices = append(f.notices, notice)
	return f.err
}

func newTestService() (*Service, *fakeStore, *fakeOwners, *fakeNotifier) {
	store := newFakeStore()
	owners := &fakeOwners{owner: 50}
	usersSrc := &fakeUserSource{users: map[int64]models.User{
		7: {ID: 7, FullName: "Dana Cruz", Email: "dana@campus.edu", ContactNumber: "0917"},
	}}
	notifier := &fakeNotifier{}
	return NewService(store, owners, usersSrc, notifier, zerolog.Nop()), store, owners, notifier
}

func pendingOrder(id int64, userID int64, tx string) models.Order {
	return models.Order{
		ID:            id,
		UserID:        userID,
		StallID:       2,
		Status:        models.StatusPending,
		TotalCost:     decimal.NewFromInt(60),
		TransactionID: tx,
	}
}

func staffOwner() models.User {
	return models.User{ID: 50, IsStaff: true}
}

func TestSummaryScopedToOwner(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")

	_, err := svc.Summary(context.Background(), 8, "S02001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryEstimatesWait(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")
	store.items[1] = []models.OrderItem{{OrderID: 1, Name: "Adobo Rice", Quantity: 2}}
	store.pending = 3

	summary, err := svc.Summary(context.Background(), 7, "S02001")
	require.NoError(t, err)
	assert.Equal(t, 30, summary.EstimatedMinutes)
	assert.Len(t, summary.Items, 1)
}

func TestOverviewIncludesUnpaidForBlacklisted(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.byUser = []models.Order{pendingOrder(1, 7, "S02001"), pendingOrder(2, 7, "S02002")}
	store.unpaid = []models.Order{pendingOrder(2, 7, "S02002")}

	overview, err := svc.Overview(context.Background(), models.User{ID: 7, Blacklisted: true})
	require.NoError(t, err)
	assert.True(t, overview.Blacklisted)
	assert.Len(t, overview.Orders, 2)
	assert.Len(t, overview.Unpaid, 1)
}

func TestOverviewOmitsUnpaidForClearedUser(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.byUser = []models.Order{pendingOrder(1, 7, "S02001")}
	store.unpaid = []models.Order{pendingOrder(1, 7, "S02001")}

	overview, err := svc.Overview(context.Background(), models.User{ID: 7})
	require.NoError(t, err)
	assert.Empty(t, overview.Unpaid)
}

func TestMarkReadyPublishesNotice(t *testing.T) {
	svc, store, _, notifier := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")

	err := svc.MarkReady(context.Background(), staffOwner(), "S02001")
	require.NoError(t, err)

	assert.Equal(t, models.StatusReady, store.statusSet["S02001"])
	require.Len(t, notifier.notices, 1)
	notice := notifier.notices[0]
	assert.Equal(t, "S02001", notice.TransactionID)
	assert.Equal(t, "Lola's Lutong Bahay", notice.StallName)
	assert.Equal(t, "Dana Cruz", notice.RecipientName)
	assert.Equal(t, "dana@campus.edu", notice.Email)
}

func TestMarkReadyDeniedForNonStaff(t *testing.T) {
	svc, store, _, notifier := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")

	err := svc.MarkReady(context.Background(), models.User{ID: 50}, "S02001")
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.Empty(t, store.statusSet)
	assert.Empty(t, notifier.notices)
}

func TestMarkReadyDeniedForForeignStaff(t *testing.T) {
	svc, store, owners, _ := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")
	owners.owner = 99

	err := svc.MarkReady(context.Background(), staffOwner(), "S02001")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestMarkReadyDeniedWhenStallUnowned(t *testing.T) {
	svc, store, owners, _ := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")
	owners.owner = 0

	err := svc.MarkReady(context.Background(), staffOwner(), "S02001")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestMarkReadySurvivesNotifyFailure(t *testing.T) {
	svc, store, _, notifier := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")
	notifier.err = errors.New("broker down")

	err := svc.MarkReady(context.Background(), staffOwner(), "S02001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, store.statusSet["S02001"])
}

func TestMarkReadySurvivesUnknownBuyer(t *testing.T) {
	svc, store, _, notifier := newTestService()
	store.orders["S02001"] = pendingOrder(1, 404, "S02001")

	err := svc.MarkReady(context.Background(), staffOwner(), "S02001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, store.statusSet["S02001"])
	assert.Empty(t, notifier.notices)
}

func TestCompleteIndependentOfStatus(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.orders["S02001"] = pendingOrder(1, 7, "S02001")

	err := svc.Complete(context.Background(), staffOwner(), "S02001")
	require.NoError(t, err)
	assert.Equal(t, []string{"S02001"}, store.completedSet)
	assert.Empty(t, store.statusSet)
}

func TestSweepBlacklistPropagatesError(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.flagErr = errors.New("db down")

	assert.Error(t, svc.SweepBlacklist(context.Background()))
}
