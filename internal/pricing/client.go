// Package pricing talks to the price oracle: the external service that owns
// the current unit price for the sellable SKU.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type priceResponseDTO struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// GetPrice fetches the current unit price. Callers on the mutation path
// treat a failure as degradation, the checkout path treats it as fatal.
func (c *Client) GetPrice(ctx context.Context) (domain.PriceQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price", nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("price oracle returned status %d", resp.StatusCode)
	}

	var dto priceResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode price response: %w", err)
	}
	if dto.Price < 0 || dto.Currency == "" {
		return domain.PriceQuote{}, fmt.Errorf("price oracle returned invalid quote: price=%v currency=%q", dto.Price, dto.Currency)
	}

	return domain.PriceQuote{UnitPrice: dto.Price, Currency: dto.Currency}, nil
}
