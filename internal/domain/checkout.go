package domain

import "time"

type CheckoutStatus string

const (
	CheckoutStatusIdle          CheckoutStatus = "IDLE"
	CheckoutStatusBuilding      CheckoutStatus = "BUILDING"
	CheckoutStatusTokenizing    CheckoutStatus = "TOKENIZING"
	CheckoutStatusOrderCreating CheckoutStatus = "ORDER_CREATING"
	CheckoutStatusSucceeded     CheckoutStatus = "SUCCEEDED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// CanTransitionTo guards the checkout state machine. Every state may fall
// back to IDLE (a failure exit or the start of a fresh attempt, the cart
// untouched either way); forward progress is strictly sequential.
func CanTransitionTo(from, to CheckoutStatus) bool {
	if to == CheckoutStatusIdle {
		return true
	}
	switch from {
	case CheckoutStatusIdle:
		return to == CheckoutStatusBuilding
	case CheckoutStatusBuilding:
		return to == CheckoutStatusTokenizing
	case CheckoutStatusTokenizing:
		return to == CheckoutStatusOrderCreating
	case CheckoutStatusOrderCreating:
		return to == CheckoutStatusSucceeded
	default:
		return false
	}
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	SocialID  string `json:"socialId,omitempty"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// CheckoutSession is an immutable sale request built fresh for every
// checkout attempt. Items is a defensive copy of the cart at build time;
// later cart mutations do not affect an in-flight session. A session is
// one-shot: once an order identifier is obtained it must not be reused.
type CheckoutSession struct {
	ID              string
	Items           []LineItem
	UnitPrice       float64
	Totals          Totals
	Customer        Customer
	ShippingAddress Address
	BillingAddress  *Address
	IdempotencyKey  string
	CreatedAt       time.Time
}

// Order identifiers returned by the order service. The order itself lives
// server-side; this client only observes it.
type OrderConfirmation struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}
