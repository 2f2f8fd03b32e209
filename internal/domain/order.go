package domain

import "github.com/shopspring/decimal"

// OrderResult is the confirmed outcome of a market order.
type OrderResult struct {
	OrderID        string
	FilledQuantity decimal.Decimal
	FilledPrice    decimal.Decimal
}

// OpenOrder is one entry in an exchange's open-orders listing.
type OpenOrder struct {
	OrderID string
	Status  string
}
