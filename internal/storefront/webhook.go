package storefront

import (
	"errors"
	"io"
	"net/http"
)

// HeaderSignature is the provider's HMAC over the raw request body.
const HeaderSignature = "Paymongo-Signature"

// paymentWebhook accepts asynchronous payment events. The raw body is
// passed through untouched: the signature covers the exact bytes sent, so
// any re-serialization would break verification.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, errors.New("could not read body"))
		return
	}

	if err := h.events.HandleEvent(r.Context(), body, r.Header.Get(HeaderSignature)); err != nil {
		h.logFor(r).Warn().Err(err).Str("action", "webhook_rejected").Msg("payment event not applied")
		respondServiceError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]bool{"received": true})
}
