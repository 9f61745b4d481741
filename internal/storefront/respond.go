package storefront

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-express/internal/cart"
	"campus-express/internal/catalog"
	"campus-express/internal/checkout"
	"campus-express/internal/orders"
	"campus-express/internal/reconcile"
	"campus-express/internal/sequence"
)

// jsonResponse writes data as a JSON-encoded HTTP response with the given status.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes an error response as JSON with the specified HTTP status code.
func jsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// statusFor maps service errors onto HTTP statuses. Anything unmapped is an
// internal error and the raw cause stays out of the response body.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrStallNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, reconcile.ErrUnknownOrder):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrBlacklisted),
		errors.Is(err, orders.ErrNotAllowed),
		errors.Is(err, reconcile.ErrBadSignature):
		return http.StatusForbidden
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidSlot),
		errors.Is(err, checkout.ErrStallClosed),
		errors.Is(err, cart.ErrUnknownAction),
		errors.Is(err, reconcile.ErrBadPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sequence.ErrDailyLimit):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		jsonError(w, code, errors.New("internal error"))
		return
	}
	jsonError(w, code, err)
}
