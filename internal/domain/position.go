package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Position is an open accumulation position for a single symbol. At most one
// position exists per symbol; repeated buys fold into it via weighted-average
// cost. SellOrderPlaced guarantees at most one outstanding sell request per
// position regardless of how many ticks observe the profit threshold crossed.
type Position struct {
	Symbol                 Symbol          `json:"symbol"`
	Quantity               decimal.Decimal `json:"quantity"`
	AverageCost            decimal.Decimal `json:"average_cost"`
	ProfitThresholdPercent decimal.Decimal `json:"profit_threshold_percent"`
	SellOrderPlaced        bool            `json:"sell_order_placed"`
	SellOrderID            string          `json:"sell_order_id,omitempty"`
	OpenedAt               time.Time       `json:"opened_at,omitempty"`

	// derived on each revaluation
	CurrentValue            decimal.Decimal `json:"current_value"`
	UnrealizedProfit        decimal.Decimal `json:"unrealized_profit"`
	UnrealizedProfitPercent decimal.Decimal `json:"unrealized_profit_percent"`
}

// RecordFill folds a confirmed buy fill into the position, recomputing the
// average cost as the quantity-weighted mean of the old cost basis and the
// fill. Returns false for non-positive quantity or price (invalid fill).
func (p *Position) RecordFill(quantity, price decimal.Decimal, at time.Time) bool {
	if p == nil {
		return false
	}
	if quantity.LessThanOrEqual(decimal.Zero) || price.LessThanOrEqual(decimal.Zero) {
		return false
	}

	if p.Quantity.IsZero() {
		p.OpenedAt = at
	}

	newQuantity := p.Quantity.Add(quantity)
	totalCost := p.Quantity.Mul(p.AverageCost).Add(quantity.Mul(price))
	p.AverageCost = totalCost.Div(newQuantity)
	p.Quantity = newQuantity

	return true
}

// Revalue recomputes the derived fields from the given market price.
func (p *Position) Revalue(price decimal.Decimal) {
	if p == nil {
		return
	}

	p.CurrentValue = p.Quantity.Mul(price)
	costBasis := p.Quantity.Mul(p.AverageCost)
	p.UnrealizedProfit = p.CurrentValue.Sub(costBasis)

	if costBasis.IsPositive() {
		p.UnrealizedProfitPercent = p.UnrealizedProfit.Div(costBasis).Mul(oneHundred)
	} else {
		p.UnrealizedProfitPercent = decimal.Zero
	}
}

// IsOpen reports whether the position holds any quantity.
func (p *Position) IsOpen() bool {
	return p != nil && p.Quantity.IsPositive()
}

// Reset zeroes the position after its sell is confirmed filled.
func (p *Position) Reset() {
	if p == nil {
		return
	}

	p.Quantity = decimal.Zero
	p.AverageCost = decimal.Zero
	p.SellOrderPlaced = false
	p.SellOrderID = ""
	p.OpenedAt = time.Time{}
	p.CurrentValue = decimal.Zero
	p.UnrealizedProfit = decimal.Zero
	p.UnrealizedProfitPercent = decimal.Zero
}
