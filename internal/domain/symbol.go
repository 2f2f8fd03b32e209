// Package domain defines core data structures used throughout the engine.
package domain

import "github.com/pkg/errors"

// Symbol identifies a tracked token, e.g. "AMPL" or "SOL".
type Symbol string

// Basket is the fixed set of symbols purchased together during a rebalance.
// Primary is the rebasing token whose price drives trigger and peg logic.
type Basket struct {
	Symbols []Symbol
	Primary Symbol
}

// NewBasket validates and constructs a basket.
func NewBasket(primary Symbol, symbols []Symbol) (Basket, error) {
	if len(symbols) == 0 {
		return Basket{}, errors.New("basket must contain at least one symbol")
	}

	seen := make(map[Symbol]struct{}, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return Basket{}, errors.New("basket contains an empty symbol")
		}
		if _, ok := seen[s]; ok {
			return Basket{}, errors.Errorf("duplicate symbol %s in basket", s)
		}
		seen[s] = struct{}{}
	}

	if _, ok := seen[primary]; !ok {
		return Basket{}, errors.Errorf("primary symbol %s is not part of the basket", primary)
	}

	return Basket{Symbols: symbols, Primary: primary}, nil
}

// Size returns the number of symbols in the basket.
func (b Basket) Size() int {
	return len(b.Symbols)
}

// Contains reports whether the symbol belongs to the basket.
func (b Basket) Contains(s Symbol) bool {
	for _, sym := range b.Symbols {
		if sym == s {
			return true
		}
	}
	return false
}
