package domain

// Commerce event names understood by the analytics sink.
const (
	EventAddToCart       = "add_to_cart"
	EventRemoveFromCart  = "remove_from_cart"
	EventViewCart        = "view_cart"
	EventBeginCheckout   = "begin_checkout"
	EventAddPaymentInfo  = "add_payment_info"
	EventAddShippingInfo = "add_shipping_info"
	EventPurchase        = "purchase"
)

// ItemCategory tags every event item; the storefront sells a single
// product family.
const ItemCategory = "plans"

// EventItem is one line of a commerce event. Price is a pointer because the
// price oracle may be unavailable and the event is still emitted without it.
type EventItem struct {
	ItemID       string   `json:"item_id"`
	ItemName     string   `json:"item_name"`
	Price        *float64 `json:"price,omitempty"`
	Quantity     int      `json:"quantity"`
	ItemCategory string   `json:"item_category"`
}

// CommerceEvent is the normalized shape handed to the event sink. Emitted,
// never persisted.
type CommerceEvent struct {
	Name          string      `json:"name"`
	Currency      string      `json:"currency"`
	Value         *float64    `json:"value,omitempty"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Tax           *float64    `json:"tax,omitempty"`
	Shipping      *float64    `json:"shipping,omitempty"`
	Items         []EventItem `json:"items"`
}
