// Package payment is the outbound adapter for the hosted-checkout payment
// provider, plus the signature verification for its webhook callbacks.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"campus-express/internal/config"
)

// ErrSessionFailed marks a checkout-session attempt the buyer may simply
// retry; local state is untouched whenever it is returned.
var ErrSessionFailed = errors.New("payment session could not be created")

// SessionRequest describes one order to the provider. AmountMinor is in
// minor currency units (centavos); Reference is the transaction id the
// provider echoes back through webhooks.
type SessionRequest struct {
	AmountMinor int64
	Description string
	Reference   string
}

// Session is the provider's side of a created checkout.
type Session struct {
	ID          string
	RedirectURL string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	currency   string
	methods    []string
	successURL string
	cancelURL  string
}

// NewClient builds the provider client. The HTTP client carries the
// configured bounded timeout; a timed-out call reports ErrSessionFailed the
// same as an error response.
func NewClient(cfg config.Payment) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		currency:   cfg.Currency,
		methods:    cfg.MethodTypes,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

type lineItem struct {
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
}

type sessionAttributes struct {
	LineItems          []lineItem `json:"line_items"`
	PaymentMethodTypes []string   `json:"payment_method_types"`
	SuccessURL         string     `json:"success_url"`
	CancelURL          string     `json:"cancel_url"`
}

type sessionPayload struct {
	Data struct {
		Attributes sessionAttributes `json:"attributes"`
	} `json:"data"`
}

type sessionResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"attributes"`
	} `json:"data"`
}

// CreateSession asks the provider for a hosted checkout session. Any
// non-2xx status, transport failure, or timeout collapses into
// ErrSessionFailed so callers can treat them uniformly as retryable.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	var payload sessionPayload
	payload.Data.Attributes = sessionAttributes{
		LineItems: []lineItem{{
			Currency:    c.currency,
			Amount:      req.AmountMinor,
			Description: req.Description,
			Name:        req.Reference,
			Quantity:    1,
		}},
		PaymentMethodTypes: c.methods,
		SuccessURL:         fmt.Sprintf(c.successURL, req.Reference),
		CancelURL:          c.cancelURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout_sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.SetBasicAuth(c.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrSessionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("%w: provider returned %d", ErrSessionFailed, resp.StatusCode)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", ErrSessionFailed, err)
	}
	if out.Data.Attributes.CheckoutURL == "" {
		return Session{}, fmt.Errorf("%w: response missing checkout url", ErrSessionFailed)
	}

	return Session{
		ID:          out.Data.ID,
		RedirectURL: out.Data.Attributes.CheckoutURL,
	}, nil
}
