// Package events translates cart mutations and checkout milestones into
// normalized commerce events for a fire-and-forget analytics sink.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// PriceSource is the slice of the price oracle the emitter needs.
type PriceSource interface {
	GetPrice(ctx context.Context) (domain.PriceQuote, error)
}

// Sink delivers events downstream. Delivery is at-least-once and no return
// value is observed by emitting code.
type Sink interface {
	LogEvent(ctx context.Context, event domain.CommerceEvent)
}

const priceFetchTimeout = 5 * time.Second

// Emitter computes the price-enriched event for every quantity delta.
// Delta emission is detached from the mutation that triggered it, but two
// deltas for the same sku are serialized through a per-sku queue so the
// sink never sees them out of order. Deltas for different skus may emit in
// either relative order.
type Emitter struct {
	sink     Sink
	prices   PriceSource
	fallback string // currency used when the price oracle is unavailable
	timeout  time.Duration

	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewEmitter(sink Sink, prices PriceSource, fallbackCurrency string) *Emitter {
	return &Emitter{
		sink:     sink,
		prices:   prices,
		fallback: fallbackCurrency,
		timeout:  priceFetchTimeout,
		tails:    make(map[string]chan struct{}),
	}
}

// Delta schedules one add_to_cart/remove_from_cart event sized by the
// unsigned quantity delta of a cart mutation. It returns immediately; the
// price fetch and the sink call run on a detached goroutine chained behind
// any in-flight emission for the same sku.
func (e *Emitter) Delta(sku, name, kind string, quantity int) {
	if quantity <= 0 {
		return
	}

	e.mu.Lock()
	prev := e.tails[sku]
	done := make(chan struct{})
	e.tails[sku] = done
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		event := domain.CommerceEvent{
			Name:     kind,
			Currency: e.fallback,
			Items: []domain.EventItem{{
				ItemID:       sku,
				ItemName:     name,
				Quantity:     quantity,
				ItemCategory: domain.ItemCategory,
			}},
		}

		priceCtx, cancelPrice := context.WithTimeout(context.Background(), e.timeout)
		quote, err := e.prices.GetPrice(priceCtx)
		cancelPrice()
		if err != nil {
			// Degrade, never drop: the event goes out without price/value.
			log.Printf("price fetch failed for %s event on %s: %v", kind, sku, err)
		} else {
			value := quote.UnitPrice * float64(quantity)
			event.Currency = quote.Currency
			event.Value = &value
			event.Items[0].Price = &quote.UnitPrice
		}

		// The sink gets its own context: an exhausted price deadline must
		// not take the event down with it.
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		e.sink.LogEvent(ctx, event)

		e.mu.Lock()
		if e.tails[sku] == done {
			delete(e.tails, sku)
		}
		e.mu.Unlock()
	}()
}

// Snapshot emits a full-cart event (view_cart, begin_checkout,
// add_payment_info, add_shipping_info) carrying the complete current cart
// value. The caller supplies the quote it has, or nil when pricing is
// unknown.
func (e *Emitter) Snapshot(ctx context.Context, name string, items []domain.LineItem, quote *domain.PriceQuote) {
	event := domain.CommerceEvent{
		Name:     name,
		Currency: e.fallback,
		Items:    eventItems(items, quote),
	}
	if quote != nil {
		value := 0.0
		for _, it := range items {
			value += quote.UnitPrice * float64(it.Quantity)
		}
		event.Currency = quote.Currency
		event.Value = &value
	}
	e.sink.LogEvent(ctx, event)
}

// Purchase emits the terminal purchase event. It runs synchronously: the
// checkout flow must see it delivered to the sink before clearing the cart,
// so the event always reflects what was actually purchased.
func (e *Emitter) Purchase(ctx context.Context, transactionID string, session *domain.CheckoutSession) {
	quote := domain.PriceQuote{UnitPrice: session.UnitPrice, Currency: session.Totals.Currency}
	tax := session.Totals.Tax
	shipping := session.Totals.Shipping
	total := session.Totals.Total

	e.sink.LogEvent(ctx, domain.CommerceEvent{
		Name:          domain.EventPurchase,
		Currency:      session.Totals.Currency,
		Value:         &total,
		TransactionID: transactionID,
		Tax:           &tax,
		Shipping:      &shipping,
		Items:         eventItems(session.Items, &quote),
	})
}

// Flush blocks until every in-flight delta emission has reached the sink.
// Used on graceful shutdown.
func (e *Emitter) Flush() {
	e.wg.Wait()
}

func eventItems(items []domain.LineItem, quote *domain.PriceQuote) []domain.EventItem {
	out := make([]domain.EventItem, 0, len(items))
	for _, it := range items {
		ei := domain.EventItem{
			ItemID:       it.SKU,
			ItemName:     it.Name,
			Quantity:     it.Quantity,
			ItemCategory: domain.ItemCategory,
		}
		if quote != nil {
			price := quote.UnitPrice
			ei.Price = &price
		}
		out = append(out, ei)
	}
	return out
}
