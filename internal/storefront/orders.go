package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"campus-express/internal/domain/models"

	"github.com/go-chi/chi/v5"
)

type checkoutRequest struct {
	PickupSlot  string `json:"pickup_slot"`
	VoucherCode string `json:"voucher_code"`
}

type checkoutResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	Warning       string `json:"warning,omitempty"`
}

func (h *Handler) beginCheckout(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	log := h.logFor(r)

	stallID, err := pathID(r, "stallID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
		return
	}
	if req.PickupSlot == "" {
		jsonError(w, http.StatusBadRequest, errors.New("pickup_slot is required"))
		return
	}

	result, err := h.checkout.Begin(r.Context(), user.ID, stallID, req.PickupSlot, req.VoucherCode)
	if err != nil {
		log.Warn().Err(err).Str("action", "checkout_rejected").Int64("stall_id", stallID).Msg("checkout did not complete")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("action", "checkout_started").Str("transaction_id", result.TransactionID).
		Int64("stall_id", stallID).Msg("order placed, awaiting payment")
	jsonResponse(w, http.StatusCreated, checkoutResponse{
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		Warning:       result.Warning,
	})
}

func (h *Handler) transaction(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	summary, err := h.orders.Summary(r.Context(), user.ID, chi.URLParam(r, "transactionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, toSummaryView(summary))
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	overview, err := h.orders.Overview(r.Context(), user)
	if err != nil {
		h.logFor(r).Error().Err(err).Str("action", "overview_failed").Msg("could not load order history")
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, overviewView{
		Blacklisted: overview.Blacklisted,
		Orders:      toOrderViews(overview.Orders),
		Unpaid:      toOrderViews(overview.Unpaid),
	})
}

func (h *Handler) markReady(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	transactionID := chi.URLParam(r, "transactionID")

	if err := h.orders.MarkReady(r.Context(), user, transactionID); err != nil {
		respondServiceError(w, err)
		return
	}

	h.logFor(r).Info().Str("action", "order_ready").Str("transaction_id", transactionID).Msg("order marked ready")
	jsonResponse(w, http.StatusOK, map[string]string{
		"transaction_id": transactionID,
		"status":         models.StatusReady,
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	transactionID := chi.URLParam(r, "transactionID")

	if err := h.orders.Complete(r.Context(), user, transactionID); err != nil {
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"transaction_id": transactionID,
		"is_complete":    true,
	})
}
