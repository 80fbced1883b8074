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

func TestPaymentProvider_TokenizeSuccess(t *testing.T) {
	var received TokenizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tokenize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"type": "tokenize-success", "token": "tok_abc"})
	}))
	defer srv.Close()

	p := NewPaymentProvider(srv.URL, 5*time.Second)
	token, err := p.Tokenize(context.Background(), TokenizeRequest{
		PayerFirstName: "Noa",
		PayerEmail:     "noa@example.com",
		Total: TokenizeTotal{
			Label:  "Aerilux",
			Amount: TokenizeAmount{Currency: "USD", Value: 998},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", token)
	assert.Equal(t, "Noa", received.PayerFirstName)
	assert.Equal(t, 998.0, received.Total.Amount.Value)
}

func TestPaymentProvider_DeclineSurfacedAsStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"type":    "tokenize-invalid-input",
			"message": "phone number is invalid",
			"errors":  map[string]string{"payerPhone": "invalid format"},
		})
	}))
	defer srv.Close()

	p := NewPaymentProvider(srv.URL, 5*time.Second)
	_, err := p.Tokenize(context.Background(), TokenizeRequest{})

	var tokenErr *TokenizationError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "tokenize-invalid-input", tokenErr.Code)
	assert.Equal(t, "phone number is invalid", tokenErr.Message)
	assert.Equal(t, "invalid format", tokenErr.Fields["payerPhone"])
}

func TestPaymentProvider_SuccessWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"type": "tokenize-success"})
	}))
	defer srv.Close()

	p := NewPaymentProvider(srv.URL, 5*time.Second)
	_, err := p.Tokenize(context.Background(), TokenizeRequest{})
	assert.Error(t, err)
}
