package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot holds the last known price for every tracked symbol at a
// point in time. A provider that fails for some symbols simply leaves their
// previous prices in place, so readers always see the freshest price observed
// so far rather than a gap.
type MarketSnapshot struct {
	Prices     map[Symbol]decimal.Decimal
	ObservedAt time.Time
}

// NewMarketSnapshot returns an empty snapshot.
func NewMarketSnapshot() MarketSnapshot {
	return MarketSnapshot{Prices: make(map[Symbol]decimal.Decimal)}
}

// Merge overlays freshly fetched prices onto the snapshot and returns the
// result. Symbols absent from the partial map keep their previously known
// price. Non-positive prices are ignored.
func (s MarketSnapshot) Merge(partial map[Symbol]decimal.Decimal, at time.Time) MarketSnapshot {
	merged := MarketSnapshot{
		Prices:     make(map[Symbol]decimal.Decimal, len(s.Prices)+len(partial)),
		ObservedAt: at,
	}

	for sym, price := range s.Prices {
		merged.Prices[sym] = price
	}
	for sym, price := range partial {
		if price.IsPositive() {
			merged.Prices[sym] = price
		}
	}

	return merged
}

// Price returns the last known price for the symbol.
func (s MarketSnapshot) Price(sym Symbol) (decimal.Decimal, bool) {
	price, ok := s.Prices[sym]
	return price, ok
}
