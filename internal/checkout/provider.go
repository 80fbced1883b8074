package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenizeRequest is the payload handed to the payment provider's
// tokenization call. Raw payment details never touch our backend; they are
// exchanged for an opaque single-use token.
type TokenizeRequest struct {
	PayerFirstName string        `json:"payerFirstName"`
	PayerLastName  string        `json:"payerLastName"`
	PayerEmail     string        `json:"payerEmail"`
	PayerPhone     string        `json:"payerPhone"`
	PayerSocialID  string        `json:"payerSocialId,omitempty"`
	Total          TokenizeTotal `json:"total"`
}

type TokenizeTotal struct {
	Label  string         `json:"label"`
	Amount TokenizeAmount `json:"amount"`
}

type TokenizeAmount struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

type tokenizeResponseDTO struct {
	Type    string            `json:"type"`
	Token   string            `json:"token"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

const tokenizeSuccessType = "tokenize-success"

// PaymentProvider is the HTTP client for the external tokenization
// endpoint. The tokenization call is the single most failure-prone checkout
// step; provider errors are surfaced as *TokenizationError, never swallowed
// or rewritten.
type PaymentProvider struct {
	baseURL string
	client  *http.Client
}

func NewPaymentProvider(baseURL string, timeout time.Duration) *PaymentProvider {
	return &PaymentProvider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p *PaymentProvider) Tokenize(ctx context.Context, req TokenizeRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal tokenize request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/tokenize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tokenize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("tokenize request failed: %w", err)
	}
	defer resp.Body.Close()

	var dto tokenizeResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return "", fmt.Errorf("decode tokenize response: %w", err)
	}

	if dto.Type != tokenizeSuccessType {
		return "", &TokenizationError{Code: dto.Type, Message: dto.Message, Fields: dto.Errors}
	}
	if dto.Token == "" {
		return "", fmt.Errorf("provider returned %s without a token", tokenizeSuccessType)
	}
	return dto.Token, nil
}
