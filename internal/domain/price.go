package domain

// PriceQuote is the current unit price for the sellable SKU. It is ephemeral:
// fetched per operation and never persisted alongside the cart.
type PriceQuote struct {
	UnitPrice float64
	Currency  string
}
