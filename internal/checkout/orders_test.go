package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleRequest() *CreateSaleRequest {
	return &CreateSaleRequest{
		Cart: SaleCart{Items: []SaleItem{{
			ProductID: "AER-STARTER",
			PlanID:    "AER-STARTER",
			Name:      "Starter Pack",
			Quantity:  2,
			UnitPrice: 499,
			LineTotal: 998,
		}}},
		Token:     "tok_abc",
		RequestID: "req-123",
	}
}

func TestOrderService_CreateSaleSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/hypay/create-sale", r.URL.Path)
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))

		var req CreateSaleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok_abc", req.Token)

		json.NewEncoder(w).Encode(map[string]string{"orderId": "ord_1", "orderNumber": "AER-1001"})
	}))
	defer srv.Close()

	c := NewOrderServiceClient(srv.URL, "hypay", 5*time.Second)
	conf, err := c.CreateSale(context.Background(), saleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ord_1", conf.OrderID)
	assert.Equal(t, "AER-1001", conf.OrderNumber)
}

func TestOrderService_BackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"code": "invalid_cart", "message": "cart is stale"})
	}))
	defer srv.Close()

	c := NewOrderServiceClient(srv.URL, "hypay", 5*time.Second)
	_, err := c.CreateSale(context.Background(), saleRequest())

	var orderErr *OrderCreationError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, http.StatusUnprocessableEntity, orderErr.StatusCode)
	assert.Equal(t, "invalid_cart", orderErr.Code)
	assert.Equal(t, "cart is stale", orderErr.Message)
}

func TestOrderService_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream blew up"))
	}))
	defer srv.Close()

	c := NewOrderServiceClient(srv.URL, "hypay", 5*time.Second)
	_, err := c.CreateSale(context.Background(), saleRequest())

	var orderErr *OrderCreationError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, http.StatusBadGateway, orderErr.StatusCode)
}

func TestOrderService_TimeoutIsAmbiguous(t *testing.T) {
	// The backend hangs past the client timeout: the order may or may not
	// exist, so the client must report unknown status, not failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewOrderServiceClient(srv.URL, "hypay", 100*time.Millisecond)
	_, err := c.CreateSale(context.Background(), saleRequest())
	assert.ErrorIs(t, err, ErrOrderStatusUnknown)
}

func TestOrderService_ConnectionRefusedIsDefiniteFailure(t *testing.T) {
	// Nothing is listening: the request never reached a backend, so this is
	// a plain failure, not an ambiguous one.
	c := NewOrderServiceClient("http://127.0.0.1:1", "hypay", time.Second)
	_, err := c.CreateSale(context.Background(), saleRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderStatusUnknown)
}

func TestOrderService_IncompleteIdentifiersAreAmbiguous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"orderId": "ord_1"})
	}))
	defer srv.Close()

	c := NewOrderServiceClient(srv.URL, "hypay", 5*time.Second)
	_, err := c.CreateSale(context.Background(), saleRequest())
	assert.ErrorIs(t, err, ErrOrderStatusUnknown)
}
