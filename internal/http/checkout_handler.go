package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Tomyshh/aerilux-commerce/internal/checkout"
	"github.com/Tomyshh/aerilux-commerce/internal/domain"
	"github.com/Tomyshh/aerilux-commerce/internal/events"
	"github.com/Tomyshh/aerilux-commerce/internal/store"
)

type CheckoutHandler struct {
	builder *checkout.Builder
	emitter *events.Emitter
	timeout time.Duration
}

func NewCheckoutHandler(builder *checkout.Builder, emitter *events.Emitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		builder: builder,
		emitter: emitter,
		timeout: timeout,
	}
}

type CheckoutRequestDTO struct {
	Customer        domain.Customer `json:"customer"`
	ShippingAddress domain.Address  `json:"shippingAddress"`
	BillingAddress  *domain.Address `json:"billingAddress,omitempty"`
}

type CheckoutResponseDTO struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

type OrderStatusResponseDTO struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

// Checkout runs the full attempt: build, tokenize, create order. Snapshot
// events mark the milestones; every failure leaves the cart unchanged.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Customer.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_customer", "customer email is required")
		return
	}

	session, err := h.builder.Build(ctx, req.Customer, req.ShippingAddress, req.BillingAddress)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	quote := domain.PriceQuote{UnitPrice: session.UnitPrice, Currency: session.Totals.Currency}
	h.emitter.Snapshot(ctx, domain.EventBeginCheckout, session.Items, &quote)
	h.emitter.Snapshot(ctx, domain.EventAddShippingInfo, session.Items, &quote)

	token, err := h.builder.Tokenize(ctx, session)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}
	h.emitter.Snapshot(ctx, domain.EventAddPaymentInfo, session.Items, &quote)

	conf, err := h.builder.CreateOrder(ctx, session, token)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     conf.OrderID,
		OrderNumber: conf.OrderNumber,
		CheckoutURL: conf.CheckoutURL,
	})
}

// Return handles the provider's success-URL redirect. Payment possibly
// completed; the order stays pending until backend confirmation.
func (h *CheckoutHandler) Return(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pending, err := h.builder.HandleReturn(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no_pending_order", "no order on record for this visitor")
			return
		}
		respondError(w, http.StatusInternalServerError, "order_lookup_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, OrderStatusResponseDTO{
		OrderNumber: pending.OrderNumber,
		Status:      "pending_confirmation",
	})
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.builder.HandleCancel()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// OrderStatus shows a returning visitor their last known order, surviving a
// full reload via durable storage.
func (h *CheckoutHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pending, err := h.builder.LastOrder(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "no_pending_order", "no order on record for this visitor")
			return
		}
		respondError(w, http.StatusInternalServerError, "order_lookup_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, OrderStatusResponseDTO{
		OrderNumber: pending.OrderNumber,
		Status:      "pending_confirmation",
	})
}

// respondCheckoutError maps checkout failures onto HTTP statuses, showing
// the provider's message when one exists. The cart is never emptied on any
// of these paths.
func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	var tokenErr *checkout.TokenizationError
	var orderErr *checkout.OrderCreationError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrPriceUnavailable):
		respondError(w, http.StatusServiceUnavailable, "price_unavailable", "pricing is temporarily unavailable, please retry")
	case errors.As(err, &tokenErr):
		respondError(w, http.StatusPaymentRequired, tokenErr.Code, tokenErr.Message)
	case errors.Is(err, checkout.ErrOrderStatusUnknown):
		respondError(w, http.StatusGatewayTimeout, "order_status_unknown",
			"we could not confirm your order; check your order status before retrying")
	case errors.As(err, &orderErr):
		respondError(w, http.StatusBadGateway, orderErr.Code, orderErr.Message)
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "checkout_failed", "something went wrong, please retry")
	}
}
