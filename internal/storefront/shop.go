package storefront

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"campus-express/internal/pickup"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func (h *Handler) listStalls(w http.ResponseWriter, r *http.Request) {
	stalls, err := h.catalog.Stalls(r.Context())
	if err != nil {
		h.logFor(r).Error().Err(err).Str("action", "list_stalls_failed").Msg("could not list stalls")
		respondServiceError(w, err)
		return
	}

	views := make([]stallView, 0, len(stalls))
	for _, stall := range stalls {
		views = append(views, toStallView(stall))
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"stalls": views})
}

func (h *Handler) stallMenu(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathID(r, "stallID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err)
		return
	}

	if _, err := h.catalog.Stall(r.Context(), stallID); err != nil {
		respondServiceError(w, err)
		return
	}

	menu, err := h.catalog.MenuByStall(r.Context(), stallID)
	if err != nil {
		h.logFor(r).Error().Err(err).Str("action", "menu_failed").Int64("stall_id", stallID).Msg("could not load menu")
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, toMenuView(menu))
}

// pickupSlots recomputes the stall's offer from the current instant. An
// empty list tells the buyer the stall takes no more orders today.
func (h *Handler) pickupSlots(w http.ResponseWriter, r *http.Request) {
	stallID, err := pathID(r, "stallID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err)
		return
	}

	stall, err := h.catalog.Stall(r.Context(), stallID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	var closing *pickup.Clock
	if stall.ClosingMinutes != nil {
		c := pickup.ClockFromMinutes(*stall.ClosingMinutes)
		closing = &c
	}

	slots := h.planner.Slots(h.now(), stall.AverageLeadTime, closing)
	views := make([]slotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, slotView{Label: slot.Label, PickupAt: slot.At})
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"slots": views})
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	grouped, err := h.cart.Grouped(r.Context(), user.ID)
	if err != nil {
		h.logFor(r).Error().Err(err).Str("action", "cart_failed").Msg("could not load cart")
		respondServiceError(w, err)
		return
	}

	views := make([]stallCartView, 0, len(grouped))
	for _, c := range grouped {
		views = append(views, toStallCartView(c))
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"carts": views})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	itemID, err := pathID(r, "itemID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.cart.Add(r.Context(), user.ID, itemID); err != nil {
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"item_id": itemID})
}

type adjustRequest struct {
	Action string `json:"action"`
}

func (h *Handler) adjustCart(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	cartItemID, err := pathID(r, "cartItemID")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err)
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
		return
	}

	if err := h.cart.Adjust(r.Context(), user.ID, cartItemID, req.Action); err != nil {
		respondServiceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"cart_item_id": cartItemID, "action": req.Action})
}
