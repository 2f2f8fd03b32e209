package marketdata

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// SimulatedProvider serves prices set by hand, for dry runs and tests.
type SimulatedProvider struct {
	mu     sync.RWMutex
	prices map[domain.Symbol]decimal.Decimal
}

// NewSimulatedProvider creates a provider seeded with the given prices.
func NewSimulatedProvider(seed map[domain.Symbol]decimal.Decimal) *SimulatedProvider {
	prices := make(map[domain.Symbol]decimal.Decimal, len(seed))
	for sym, price := range seed {
		prices[sym] = price
	}
	return &SimulatedProvider{prices: prices}
}

// SetPrice overrides a symbol's price.
func (p *SimulatedProvider) SetPrice(symbol domain.Symbol, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// RemovePrice drops a symbol, simulating a provider that cannot price it.
func (p *SimulatedProvider) RemovePrice(symbol domain.Symbol) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.prices, symbol)
}

// FetchPrices returns the currently set prices for the requested symbols.
func (p *SimulatedProvider) FetchPrices(_ context.Context, symbols []domain.Symbol) (map[domain.Symbol]decimal.Decimal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[domain.Symbol]decimal.Decimal, len(symbols))
	for _, sym := range symbols {
		if price, ok := p.prices[sym]; ok {
			out[sym] = price
		}
	}
	return out, nil
}
