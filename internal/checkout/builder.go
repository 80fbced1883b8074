// Package checkout assembles the immutable sale request, drives the
// external tokenization handshake and creates the backend order exactly
// once. Any failure returns the state machine to IDLE with the cart
// preserved unchanged.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tomyshh/aerilux-commerce/internal/cart"
	"github.com/Tomyshh/aerilux-commerce/internal/domain"
	"github.com/Tomyshh/aerilux-commerce/internal/store"
)

// LastOrderKey is the blob key holding the last known order, so a returning
// visitor can be shown their pending order status after a full reload.
const LastOrderKey = "aerilux.last_order"

type PriceSource interface {
	GetPrice(ctx context.Context) (domain.PriceQuote, error)
}

type Tokenizer interface {
	Tokenize(ctx context.Context, req TokenizeRequest) (string, error)
}

type OrderCreator interface {
	CreateSale(ctx context.Context, req *CreateSaleRequest) (*domain.OrderConfirmation, error)
}

// PurchaseEmitter fires the terminal purchase event. Consumers define this
// interface, not the events implementation.
type PurchaseEmitter interface {
	Purchase(ctx context.Context, transactionID string, session *domain.CheckoutSession)
}

// RateRules are externally supplied: tax and shipping are configuration,
// not computed here.
type RateRules struct {
	TaxRate      float64
	FlatShipping float64
}

// PendingOrder is the durable record of the last created order.
type PendingOrder struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	RequestID   string    `json:"requestId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Builder drives one checkout attempt at a time through
// IDLE → BUILDING → TOKENIZING → ORDER_CREATING → SUCCEEDED.
type Builder struct {
	mu        sync.Mutex
	status    domain.CheckoutStatus
	consumed  map[string]bool // session IDs that already produced an order
	cart      *cart.Store
	prices    PriceSource
	tokenizer Tokenizer
	orders    OrderCreator
	blobs     store.BlobStore
	emitter   PurchaseEmitter
	rates     RateRules
	returnURL string
	cancelURL string
}

func NewBuilder(cartStore *cart.Store, prices PriceSource, tokenizer Tokenizer, orders OrderCreator,
	blobs store.BlobStore, emitter PurchaseEmitter, rates RateRules, returnURL, cancelURL string) *Builder {
	return &Builder{
		status:    domain.CheckoutStatusIdle,
		consumed:  make(map[string]bool),
		cart:      cartStore,
		prices:    prices,
		tokenizer: tokenizer,
		orders:    orders,
		blobs:     blobs,
		emitter:   emitter,
		rates:     rates,
		returnURL: returnURL,
		cancelURL: cancelURL,
	}
}

func (b *Builder) Status() domain.CheckoutStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Build snapshots the cart, fetches the current price and computes totals.
// Fails with ErrPriceUnavailable when no quote can be obtained: checkout
// cannot proceed without a price.
func (b *Builder) Build(ctx context.Context, customer domain.Customer, shipping domain.Address, billing *domain.Address) (*domain.CheckoutSession, error) {
	if err := b.transition(domain.CheckoutStatusBuilding); err != nil {
		return nil, err
	}

	items := b.cart.Items()
	if len(items) == 0 {
		b.reset()
		return nil, ErrEmptyCart
	}

	quote, err := b.prices.GetPrice(ctx)
	if err != nil {
		b.reset()
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	subtotal := 0.0
	for _, it := range items {
		subtotal += quote.UnitPrice * float64(it.Quantity)
	}
	tax := subtotal * b.rates.TaxRate
	shippingCost := b.rates.FlatShipping

	return &domain.CheckoutSession{
		ID:        uuid.NewString(),
		Items:     items,
		UnitPrice: quote.UnitPrice,
		Totals: domain.Totals{
			Subtotal: subtotal,
			Shipping: shippingCost,
			Tax:      tax,
			Total:    subtotal + tax + shippingCost,
			Currency: quote.Currency,
		},
		Customer:        customer,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		IdempotencyKey:  uuid.NewString(),
		CreatedAt:       time.Now(),
	}, nil
}

// Tokenize exchanges the session's payer details for a single-use token.
// Provider declines come back as *TokenizationError, unmodified; the state
// machine drops back to IDLE and the cart is untouched.
func (b *Builder) Tokenize(ctx context.Context, session *domain.CheckoutSession) (string, error) {
	if err := b.transition(domain.CheckoutStatusTokenizing); err != nil {
		return "", err
	}

	token, err := b.tokenizer.Tokenize(ctx, TokenizeRequest{
		PayerFirstName: session.Customer.FirstName,
		PayerLastName:  session.Customer.LastName,
		PayerEmail:     session.Customer.Email,
		PayerPhone:     session.Customer.Phone,
		PayerSocialID:  session.Customer.SocialID,
		Total: TokenizeTotal{
			Label: "Aerilux",
			Amount: TokenizeAmount{
				Currency: session.Totals.Currency,
				Value:    session.Totals.Total,
			},
		},
	})
	if err != nil {
		b.reset()
		return "", err
	}
	return token, nil
}

// CreateOrder posts the session plus token to the order service, exactly
// once. On success it persists the order identifiers, emits the purchase
// event and only then clears the cart. On any failure, including
// ErrOrderStatusUnknown, the cart is preserved and nothing is retried.
func (b *Builder) CreateOrder(ctx context.Context, session *domain.CheckoutSession, token string) (*domain.OrderConfirmation, error) {
	b.mu.Lock()
	if b.consumed[session.ID] {
		b.mu.Unlock()
		return nil, ErrSessionConsumed
	}
	b.mu.Unlock()

	if err := b.transition(domain.CheckoutStatusOrderCreating); err != nil {
		return nil, err
	}

	conf, err := b.orders.CreateSale(ctx, &CreateSaleRequest{
		Cart:            saleCart(session),
		Totals:          session.Totals,
		Customer:        session.Customer,
		ShippingAddress: session.ShippingAddress,
		BillingAddress:  session.BillingAddress,
		ReturnURL:       b.returnURL,
		CancelURL:       b.cancelURL,
		Token:           token,
		RequestID:       session.IdempotencyKey,
	})
	if err != nil {
		b.reset()
		return nil, err
	}

	b.storeLastOrder(ctx, conf, session.IdempotencyKey)

	// Purchase fires before Clear so the event reflects what was bought.
	b.emitter.Purchase(ctx, conf.OrderID, session)
	b.cart.Clear(ctx)

	b.mu.Lock()
	b.consumed[session.ID] = true
	// A concurrent cancel may already have reset the attempt to IDLE; the
	// order exists either way, so only advance when the guard allows it.
	if domain.CanTransitionTo(b.status, domain.CheckoutStatusSucceeded) {
		b.status = domain.CheckoutStatusSucceeded
	}
	b.mu.Unlock()

	return conf, nil
}

// HandleCancel processes the provider's cancel callback: the attempt is
// abandoned, the cart stays as it was.
func (b *Builder) HandleCancel() {
	b.reset()
}

// HandleReturn processes the provider's success-URL callback. Returning to
// the success URL only means payment possibly completed: the order stays
// pending until backend confirmation, so this hands back the durably stored
// order for a status check rather than declaring success.
func (b *Builder) HandleReturn(ctx context.Context) (*PendingOrder, error) {
	return b.LastOrder(ctx)
}

// LastOrder reads the durably stored last order, if any.
func (b *Builder) LastOrder(ctx context.Context) (*PendingOrder, error) {
	blob, err := b.blobs.Get(ctx, LastOrderKey)
	if err != nil {
		return nil, err
	}
	var pending PendingOrder
	if err := json.Unmarshal([]byte(blob), &pending); err != nil {
		return nil, fmt.Errorf("decode stored order: %w", err)
	}
	return &pending, nil
}

func (b *Builder) transition(to domain.CheckoutStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status.IsTerminal() {
		// A finished attempt returns to IDLE before the next one starts.
		b.status = domain.CheckoutStatusIdle
	}
	if !domain.CanTransitionTo(b.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.status, to)
	}
	b.status = to
	return nil
}

func (b *Builder) reset() {
	b.mu.Lock()
	b.status = domain.CheckoutStatusIdle
	b.mu.Unlock()
}

// storeLastOrder is best-effort: losing the marker only degrades the
// returning-visitor status page, the order itself is safe server-side.
func (b *Builder) storeLastOrder(ctx context.Context, conf *domain.OrderConfirmation, requestID string) {
	record, err := json.Marshal(PendingOrder{
		OrderID:     conf.OrderID,
		OrderNumber: conf.OrderNumber,
		RequestID:   requestID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		log.Printf("failed to marshal last order record: %v", err)
		return
	}
	if err := b.blobs.Set(ctx, LastOrderKey, string(record)); err != nil {
		log.Printf("failed to persist last order %s: %v", conf.OrderNumber, err)
	}
}

func saleCart(session *domain.CheckoutSession) SaleCart {
	items := make([]SaleItem, 0, len(session.Items))
	for _, it := range session.Items {
		items = append(items, SaleItem{
			ProductID: it.SKU,
			PlanID:    it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: session.UnitPrice,
			LineTotal: session.UnitPrice * float64(it.Quantity),
		})
	}
	return SaleCart{Items: items}
}
