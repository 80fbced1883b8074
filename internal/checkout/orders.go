package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// CreateSaleRequest is the full session payload posted to the checkout
// backend. ProductID and PlanID both carry the sku: the backend kept the
// legacy plan field when the catalog moved to skus.
type CreateSaleRequest struct {
	Cart            SaleCart        `json:"cart"`
	Totals          domain.Totals   `json:"totals"`
	Customer        domain.Customer `json:"customer"`
	ShippingAddress domain.Address  `json:"shippingAddress"`
	BillingAddress  *domain.Address `json:"billingAddress,omitempty"`
	ReturnURL       string          `json:"returnUrl"`
	CancelURL       string          `json:"cancelUrl"`
	Token           string          `json:"token"`
	RequestID       string          `json:"requestId"`
}

type SaleCart struct {
	Items []SaleItem `json:"items"`
}

type SaleItem struct {
	ProductID string  `json:"productId"`
	PlanID    string  `json:"planId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type errorResponseDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OrderServiceClient creates orders on the checkout backend. Order creation
// is non-idempotent from this client's perspective: it never retries, and
// an ambiguous failure (timeout) surfaces as ErrOrderStatusUnknown, since
// a retry could create a duplicate order.
type OrderServiceClient struct {
	backendBase string
	provider    string
	client      *http.Client
}

func NewOrderServiceClient(backendBase, provider string, timeout time.Duration) *OrderServiceClient {
	return &OrderServiceClient{
		backendBase: backendBase,
		provider:    provider,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *OrderServiceClient) CreateSale(ctx context.Context, req *CreateSaleRequest) (*domain.OrderConfirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create-sale request: %w", err)
	}

	url := fmt.Sprintf("%s/checkout/%s/create-sale", c.backendBase, c.provider)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build create-sale request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", req.RequestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isAmbiguous(err) {
			return nil, fmt.Errorf("%w: %v", ErrOrderStatusUnknown, err)
		}
		return nil, fmt.Errorf("create-sale request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var dto errorResponseDTO
		_ = json.NewDecoder(resp.Body).Decode(&dto) // best effort, body may not be JSON
		return nil, &OrderCreationError{StatusCode: resp.StatusCode, Code: dto.Code, Message: dto.Message}
	}

	var conf domain.OrderConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		// The order may exist server-side; the response just didn't survive.
		return nil, fmt.Errorf("%w: decode create-sale response: %v", ErrOrderStatusUnknown, err)
	}
	if conf.OrderID == "" || conf.OrderNumber == "" {
		return nil, fmt.Errorf("%w: backend returned incomplete order identifiers", ErrOrderStatusUnknown)
	}
	return &conf, nil
}

// isAmbiguous reports whether the request may have reached the backend even
// though we never saw a response.
func isAmbiguous(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
