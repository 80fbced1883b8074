package checkout

import (
	"context"
	"sync"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// mockPriceSource implements PriceSource for testing
type mockPriceSource struct {
	Quote domain.PriceQuote
	Err   error
}

func (m *mockPriceSource) GetPrice(context.Context) (domain.PriceQuote, error) {
	if m.Err != nil {
		return domain.PriceQuote{}, m.Err
	}
	return m.Quote, nil
}

// mockTokenizer implements Tokenizer for testing
type mockTokenizer struct {
	Token   string
	Err     error
	Request *TokenizeRequest // captures the request handed to the provider
}

func (m *mockTokenizer) Tokenize(_ context.Context, req TokenizeRequest) (string, error) {
	m.Request = &req
	if m.Err != nil {
		return "", m.Err
	}
	return m.Token, nil
}

// mockOrderCreator implements OrderCreator for testing
type mockOrderCreator struct {
	Confirmation *domain.OrderConfirmation
	Err          error
	Calls        int
	LastRequest  *CreateSaleRequest
}

func (m *mockOrderCreator) CreateSale(_ context.Context, req *CreateSaleRequest) (*domain.OrderConfirmation, error) {
	m.Calls++
	m.LastRequest = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Confirmation, nil
}

// mockPurchaseEmitter implements PurchaseEmitter for testing
type mockPurchaseEmitter struct {
	m         sync.Mutex
	Purchases []purchaseCall
}

type purchaseCall struct {
	TransactionID string
	Session       *domain.CheckoutSession
}

func (m *mockPurchaseEmitter) Purchase(_ context.Context, transactionID string, session *domain.CheckoutSession) {
	m.m.Lock()
	defer m.m.Unlock()
	m.Purchases = append(m.Purchases, purchaseCall{transactionID, session})
}

// nopDeltaEmitter feeds the cart store used in builder tests
type nopDeltaEmitter struct{}

func (nopDeltaEmitter) Delta(string, string, string, int) {}
