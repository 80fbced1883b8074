package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
	ErrPriceUnavailable   = errors.New("price unavailable, checkout cannot proceed")
	ErrOrderStatusUnknown = errors.New("order status unknown, do not retry")
	ErrSessionConsumed    = errors.New("checkout session already produced an order")
)

// TokenizationError carries the payment provider's structured failure
// unmodified: the provider's type string, its message when present, and any
// per-field validation errors.
type TokenizationError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *TokenizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tokenization failed: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("tokenization failed: %s", e.Code)
}

// OrderCreationError is a definite (non-ambiguous) failure from the order
// service: the request completed and the backend said no.
type OrderCreationError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *OrderCreationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order creation failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("order creation failed with status %d", e.StatusCode)
}
