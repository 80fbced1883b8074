package domain

// LineItem is a single sellable entry in the cart. The SKU is the line-item
// key: a cart never holds two items with the same SKU, and Quantity is
// always at least 1 (dropping to zero removes the line instead).
type LineItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Cart is the visitor's pending purchase, in insertion (display) order.
// Price is deliberately absent: it is fetched per operation so the persisted
// cart can never go stale with respect to pricing.
type Cart struct {
	Items []LineItem `json:"items"`
}

func (c Cart) TotalItemCount() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Find returns the index of the item with the given sku, or -1.
func (c Cart) Find(sku string) int {
	for i, it := range c.Items {
		if it.SKU == sku {
			return i
		}
	}
	return -1
}
