package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the page-level flow: cart endpoints, the checkout
// endpoint and the provider's return/cancel callback routes.
func NewRouter(cartHandler *CartHandler, checkoutHandler *CheckoutHandler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{sku}", cartHandler.UpdateQuantity)
		r.Delete("/items/{sku}", cartHandler.RemoveItem)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", checkoutHandler.Checkout)
		r.Get("/return", checkoutHandler.Return)
		r.Get("/cancel", checkoutHandler.Cancel)
	})

	r.Get("/order/status", checkoutHandler.OrderStatus)

	return otelhttp.NewHandler(r, "aerilux-commerce")
}
