package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

type captureSink struct {
	m       sync.Mutex
	events  []domain.CommerceEvent
	ctxErrs []error
}

func (s *captureSink) LogEvent(ctx context.Context, event domain.CommerceEvent) {
	s.m.Lock()
	defer s.m.Unlock()
	s.events = append(s.events, event)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
}

func (s *captureSink) all() []domain.CommerceEvent {
	s.m.Lock()
	defer s.m.Unlock()
	out := make([]domain.CommerceEvent, len(s.events))
	copy(out, s.events)
	return out
}

type stubPriceSource struct {
	m     sync.Mutex
	quote domain.PriceQuote
	err   error
	delay time.Duration
	calls int
}

func (p *stubPriceSource) GetPrice(context.Context) (domain.PriceQuote, error) {
	p.m.Lock()
	p.calls++
	delay, quote, err := p.delay, p.quote, p.err
	p.m.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return domain.PriceQuote{}, err
	}
	return quote, nil
}

func TestDelta_EnrichedWithPrice(t *testing.T) {
	sink := &captureSink{}
	prices := &stubPriceSource{quote: domain.PriceQuote{UnitPrice: 499, Currency: "USD"}}
	e := NewEmitter(sink, prices, "USD")

	e.Delta("AER-STARTER", "Starter", domain.EventAddToCart, 2)
	e.Flush()

	events := sink.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, domain.EventAddToCart, ev.Name)
	assert.Equal(t, "USD", ev.Currency)
	require.NotNil(t, ev.Value)
	assert.Equal(t, 998.0, *ev.Value)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, "AER-STARTER", ev.Items[0].ItemID)
	assert.Equal(t, 2, ev.Items[0].Quantity)
	require.NotNil(t, ev.Items[0].Price)
	assert.Equal(t, 499.0, *ev.Items[0].Price)
}

func TestDelta_PriceFailureDegradesGracefully(t *testing.T) {
	sink := &captureSink{}
	prices := &stubPriceSource{err: errors.New("oracle down")}
	e := NewEmitter(sink, prices, "USD")

	e.Delta("AER-STARTER", "Starter", domain.EventAddToCart, 1)
	e.Flush()

	events := sink.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, domain.EventAddToCart, ev.Name)
	assert.Equal(t, "USD", ev.Currency) // fallback constant
	assert.Nil(t, ev.Value)
	require.Len(t, ev.Items, 1)
	assert.Nil(t, ev.Items[0].Price)
}

// blockingPriceSource holds until the fetch deadline expires, like an
// oracle that hangs instead of answering.
type blockingPriceSource struct{}

func (blockingPriceSource) GetPrice(ctx context.Context) (domain.PriceQuote, error) {
	<-ctx.Done()
	return domain.PriceQuote{}, ctx.Err()
}

func TestDelta_ExhaustedPriceDeadlineStillDelivers(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(sink, blockingPriceSource{}, "USD")
	e.timeout = 20 * time.Millisecond

	e.Delta("AER-STARTER", "Starter", domain.EventAddToCart, 1)
	e.Flush()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, "USD", events[0].Currency)
	assert.Nil(t, events[0].Value)

	// The sink must see a live context even though the price fetch ate its
	// entire deadline.
	require.Len(t, sink.ctxErrs, 1)
	assert.NoError(t, sink.ctxErrs[0])
}

func TestDelta_ZeroQuantityIgnored(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(sink, &stubPriceSource{}, "USD")

	e.Delta("A", "a", domain.EventAddToCart, 0)
	e.Flush()

	assert.Empty(t, sink.all())
}

func TestDelta_PerSKUOrderingPreserved(t *testing.T) {
	sink := &captureSink{}
	// A slow first fetch must not let the second emission overtake it.
	prices := &stubPriceSource{
		quote: domain.PriceQuote{UnitPrice: 10, Currency: "USD"},
		delay: 50 * time.Millisecond,
	}
	e := NewEmitter(sink, prices, "USD")

	e.Delta("AER-STARTER", "Starter", domain.EventAddToCart, 3)
	prices.m.Lock()
	prices.delay = 0
	prices.m.Unlock()
	e.Delta("AER-STARTER", "Starter", domain.EventRemoveFromCart, 1)
	e.Flush()

	events := sink.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventAddToCart, events[0].Name)
	assert.Equal(t, domain.EventRemoveFromCart, events[1].Name)
}

func TestSnapshot_CarriesFullCartValue(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(sink, &stubPriceSource{}, "USD")

	items := []domain.LineItem{
		{SKU: "A", Name: "a", Quantity: 2},
		{SKU: "B", Name: "b", Quantity: 1},
	}
	quote := domain.PriceQuote{UnitPrice: 100, Currency: "EUR"}
	e.Snapshot(context.Background(), domain.EventViewCart, items, &quote)

	events := sink.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, domain.EventViewCart, ev.Name)
	assert.Equal(t, "EUR", ev.Currency)
	require.NotNil(t, ev.Value)
	assert.Equal(t, 300.0, *ev.Value)
	assert.Len(t, ev.Items, 2)
}

func TestSnapshot_UnknownQuoteOmitsValue(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(sink, &stubPriceSource{}, "USD")

	e.Snapshot(context.Background(), domain.EventBeginCheckout,
		[]domain.LineItem{{SKU: "A", Name: "a", Quantity: 1}}, nil)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, "USD", events[0].Currency)
	assert.Nil(t, events[0].Value)
	assert.Nil(t, events[0].Items[0].Price)
}

func TestPurchase_CarriesTransactionAndTotals(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(sink, &stubPriceSource{}, "USD")

	session := &domain.CheckoutSession{
		Items:     []domain.LineItem{{SKU: "AER-STARTER", Name: "Starter Pack", Quantity: 2}},
		UnitPrice: 499,
		Totals: domain.Totals{
			Subtotal: 998,
			Tax:      99.8,
			Shipping: 10,
			Total:    1107.8,
			Currency: "USD",
		},
	}
	e.Purchase(context.Background(), "ord_1", session)

	events := sink.all()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, domain.EventPurchase, ev.Name)
	assert.Equal(t, "ord_1", ev.TransactionID)
	require.NotNil(t, ev.Value)
	assert.Equal(t, 1107.8, *ev.Value)
	require.NotNil(t, ev.Tax)
	assert.Equal(t, 99.8, *ev.Tax)
	require.Len(t, ev.Items, 1)
	require.NotNil(t, ev.Items[0].Price)
	assert.Equal(t, 499.0, *ev.Items[0].Price)
}
