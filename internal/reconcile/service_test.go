package reconcile

import (
	"context"
	"fmt"
	"testing"

	"campus-express/internal/payment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	paid      map[string]bool
	markCalls int
	failWith  error
}

func newFakeOrderStore(known ...string) *fakeOrderStore {
	paid := make(map[string]bool)
	for _, id := range known {
		paid[id] = false
	}
	return &fakeOrderStore{paid: paid}
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, transactionID string) (bool, error) {
	f.markCalls++
	if f.failWith != nil {
		return false, f.failWith
	}
	if _, ok := f.paid[transactionID]; !ok {
		return false, nil
	}
	f.paid[transactionID] = true
	return true, nil
}

const secret = "whsec_test"

func paidEvent(reference string) []byte {
	return []byte(fmt.Sprintf(
		`{"data":{"attributes":{"type":"payment.paid","data":{"attributes":{"description":%q}}}}}`,
		reference))
}

func TestHandleEventMarksOrderPaid(t *testing.T) {
	store := newFakeOrderStore("S02003")
	svc := NewService(store, secret, zerolog.Nop())

	body := paidEvent("S02003")
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, secret))
	require.NoError(t, err)
	assert.True(t, store.paid["S02003"])
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	store := newFakeOrderStore("S02003")
	svc := NewService(store, secret, zerolog.Nop())

	body := paidEvent("S02003")
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, "wrong-secret"))
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Zero(t, store.markCalls, "no state change on bad signature")
}

func TestHandleEventUnknownOrder(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewService(store, secret, zerolog.Nop())

	body := paidEvent("S09999")
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, secret))
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestHandleEventIdempotentRedelivery(t *testing.T) {
	store := newFakeOrderStore("S02003")
	svc := NewService(store, secret, zerolog.Nop())

	body := paidEvent("S02003")
	sig := payment.Sign(body, secret)

	require.NoError(t, svc.HandleEvent(context.Background(), body, sig))
	require.NoError(t, svc.HandleEvent(context.Background(), body, sig))

	assert.True(t, store.paid["S02003"])
	assert.Equal(t, 2, store.markCalls, "second delivery applies the same update")
}

func TestHandleEventIgnoresOtherEventTypes(t *testing.T) {
	store := newFakeOrderStore("S02003")
	svc := NewService(store, secret, zerolog.Nop())

	body := []byte(`{"data":{"attributes":{"type":"source.chargeable","data":{"attributes":{"description":"S02003"}}}}}`)
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, secret))
	require.NoError(t, err)
	assert.False(t, store.paid["S02003"])
	assert.Zero(t, store.markCalls)
}

func TestHandleEventMalformedPayload(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewService(store, secret, zerolog.Nop())

	body := []byte(`{not json`)
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, secret))
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestHandleEventMissingReference(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewService(store, secret, zerolog.Nop())

	body := []byte(`{"data":{"attributes":{"type":"payment.paid","data":{"attributes":{}}}}}`)
	err := svc.HandleEvent(context.Background(), body, payment.Sign(body, secret))
	assert.ErrorIs(t, err, ErrBadPayload)
}
