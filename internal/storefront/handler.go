// Package storefront is the HTTP surface of the service: buyer browsing and
// cart flows, checkout, staff order transitions, and the payment webhook.
package storefront

import (
	"context"
	"net/http"
	"time"

	"campus-express/internal/checkout"
	"campus-express/internal/domain/models"
	"campus-express/internal/orders"
	"campus-express/internal/pickup"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// The service surfaces the handler routes to. Each is implemented by its
// feature package and faked in tests.
type (
	UserDirectory interface {
		ByStudentID(ctx context.Context, studentID string) (models.User, error)
	}
	Catalog interface {
		Stalls(ctx context.Context) ([]models.Stall, error)
		Stall(ctx context.Context, id int64) (models.Stall, error)
		MenuByStall(ctx context.Context, stallID int64) (models.Menu, error)
	}
	CartStore interface {
		Add(ctx context.Context, userID, itemID int64) error
		Adjust(ctx context.Context, userID, cartItemID int64, action string) error
		Grouped(ctx context.Context, userID int64) ([]models.StallCart, error)
	}
	CheckoutStarter interface {
		Begin(ctx context.Context, userID, stallID int64, slotLabel, voucherCode string) (checkout.Result, error)
	}
	OrderService interface {
		Summary(ctx context.Context, userID int64, transactionID string) (orders.Summary, error)
		Overview(ctx context.Context, user models.User) (orders.Overview, error)
		MarkReady(ctx context.Context, staff models.User, transactionID string) error
		Complete(ctx context.Context, staff models.User, transactionID string) error
	}
	PaymentEvents interface {
		HandleEvent(ctx context.Context, body []byte, signature string) error
	}
)

type Handler struct {
	users    UserDirectory
	catalog  Catalog
	cart     CartStore
	checkout CheckoutStarter
	orders   OrderService
	events   PaymentEvents
	planner  pickup.Planner
	now      func() time.Time
	log      zerolog.Logger
}

// Deps bundles the handler's collaborators. Now defaults to the wall clock;
// tests pin it. Now must report time in the deployment time zone, since the
// planner only sees wall-clock instants.
type Deps struct {
	Users    UserDirectory
	Catalog  Catalog
	Cart     CartStore
	Checkout CheckoutStarter
	Orders   OrderService
	Events   PaymentEvents
	Planner  pickup.Planner
	Now      func() time.Time
}

func NewHandler(deps Deps, log zerolog.Logger) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		users:    deps.Users,
		catalog:  deps.Catalog,
		cart:     deps.Cart,
		checkout: deps.Checkout,
		orders:   deps.Orders,
		events:   deps.Events,
		planner:  deps.Planner,
		now:      now,
		log:      log,
	}
}

// Routes wires the full route tree. The webhook and health endpoints stay
// outside the identity middleware: the payment provider authenticates with
// its signature, not a student header.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestID)

	r.Get("/healthz", h.health)
	r.Post("/webhooks/payments", h.paymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(h.withUser)

		r.Get("/stalls", h.listStalls)
		r.Get("/stalls/{stallID}/menu", h.stallMenu)
		r.Get("/stalls/{stallID}/pickup-slots", h.pickupSlots)
		r.Post("/stalls/{stallID}/checkout", h.beginCheckout)

		r.Get("/cart", h.viewCart)
		r.Post("/cart/items/{itemID}", h.addToCart)
		r.Post("/cart/items/{cartItemID}/adjust", h.adjustCart)

		r.Get("/me/orders", h.myOrders)
		r.Get("/transactions/{transactionID}", h.transaction)

		r.Post("/orders/{transactionID}/ready", h.markReady)
		r.Post("/orders/{transactionID}/complete", h.complete)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
