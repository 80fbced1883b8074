package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tomyshh/aerilux-commerce/internal/cart"
	"github.com/Tomyshh/aerilux-commerce/internal/domain"
	"github.com/Tomyshh/aerilux-commerce/internal/events"
)

type CartHandler struct {
	cart    *cart.Store
	prices  events.PriceSource
	emitter *events.Emitter
	timeout time.Duration
}

func NewCartHandler(cartStore *cart.Store, prices events.PriceSource, emitter *events.Emitter, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cartStore,
		prices:  prices,
		emitter: emitter,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items          []domain.LineItem `json:"items"`
	TotalItemCount int               `json:"totalItemCount"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items := h.cart.Items()
	h.emitter.Snapshot(ctx, domain.EventViewCart, items, h.quoteOrNil(ctx))

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items:          items,
		TotalItemCount: h.cart.TotalItemCount(),
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SKU == "" {
		respondError(w, http.StatusBadRequest, "invalid_sku", "sku must not be empty")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.cart.Add(ctx, req.SKU, req.Name, req.Quantity)
	respondJSON(w, http.StatusCreated, CartResponseDTO{
		Items:          h.cart.Items(),
		TotalItemCount: h.cart.TotalItemCount(),
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sku := chi.URLParam(r, "sku")
	var req UpdateQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	h.cart.SetQuantity(ctx, sku, req.Quantity)
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items:          h.cart.Items(),
		TotalItemCount: h.cart.TotalItemCount(),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.cart.Remove(ctx, chi.URLParam(r, "sku"))
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Items:          h.cart.Items(),
		TotalItemCount: h.cart.TotalItemCount(),
	})
}

// quoteOrNil fetches a best-effort quote for snapshot events; nil means the
// event goes out without pricing.
func (h *CartHandler) quoteOrNil(ctx context.Context) *domain.PriceQuote {
	quote, err := h.prices.GetPrice(ctx)
	if err != nil {
		return nil
	}
	return &quote
}
