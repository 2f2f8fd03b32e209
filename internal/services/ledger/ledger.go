// Package ledger tracks open accumulation positions per symbol.
package ledger

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

const positionsKey = "positions"

type settingsStore interface {
	Get(key, def string) string
	Set(key, value string) error
}

// Ledger owns all position records. It is the single writer for position
// state; reads from other goroutines (web status) go through the lock-free
// copies returned by Position and OpenPositions.
type Ledger struct {
	logger           *zap.Logger
	store            settingsStore
	positions        map[domain.Symbol]*domain.Position
	defaultThreshold decimal.Decimal
}

// New restores the ledger from the settings store. Positions recorded before
// a restart come back with their quantity, cost basis and sell flags intact.
func New(logger *zap.Logger, store settingsStore, defaultThreshold decimal.Decimal) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		logger:           logger,
		store:            store,
		positions:        make(map[domain.Symbol]*domain.Position),
		defaultThreshold: defaultThreshold,
	}

	if store != nil {
		raw := store.Get(positionsKey, "")
		if raw != "" {
			var restored []*domain.Position
			if err := json.Unmarshal([]byte(raw), &restored); err != nil {
				return nil, errors.Wrap(err, "decode persisted positions")
			}
			for _, p := range restored {
				l.positions[p.Symbol] = p
			}
			logger.Info("restored positions from settings store", zap.Int("count", len(restored)))
		}
	}

	return l, nil
}

// RecordFill folds a confirmed buy fill into the symbol's position, creating
// it on first fill. Invalid fills (non-positive quantity or price) are logged
// and ignored.
func (l *Ledger) RecordFill(symbol domain.Symbol, quantity, price decimal.Decimal, at time.Time) error {
	p, ok := l.positions[symbol]
	if !ok {
		p = &domain.Position{Symbol: symbol, ProfitThresholdPercent: l.defaultThreshold}
		l.positions[symbol] = p
	}

	if !p.RecordFill(quantity, price, at) {
		l.logger.Warn("ignoring invalid fill",
			zap.String("symbol", string(symbol)),
			zap.String("quantity", quantity.String()),
			zap.String("price", price.String()))
		return nil
	}

	l.logger.Info("fill recorded",
		zap.String("symbol", string(symbol)),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
		zap.String("average_cost", p.AverageCost.String()))

	return l.persist()
}

// Revalue recomputes derived valuation fields for every position that has a
// price in the snapshot. Positions without a known price are left untouched
// and stay excluded from profit evaluation.
func (l *Ledger) Revalue(snapshot domain.MarketSnapshot) {
	for sym, p := range l.positions {
		if price, ok := snapshot.Price(sym); ok {
			p.Revalue(price)
		}
	}
}

// MarkSellPlaced flags the position as having exactly one outstanding sell
// request and remembers the order id for later reconciliation.
func (l *Ledger) MarkSellPlaced(symbol domain.Symbol, orderID string) error {
	p, ok := l.positions[symbol]
	if !ok {
		return errors.Errorf("no position for symbol %s", symbol)
	}

	p.SellOrderPlaced = true
	p.SellOrderID = orderID

	return l.persist()
}

// Clear zeroes the position after its sell is confirmed filled or cancelled.
func (l *Ledger) Clear(symbol domain.Symbol) error {
	p, ok := l.positions[symbol]
	if !ok {
		return nil
	}

	p.Reset()
	l.logger.Info("position cleared", zap.String("symbol", string(symbol)))

	return l.persist()
}

// SetProfitThreshold applies a new profit threshold to every open position
// immediately and to positions opened later. Already-placed sell requests are
// unaffected.
func (l *Ledger) SetProfitThreshold(threshold decimal.Decimal) error {
	if threshold.LessThanOrEqual(decimal.Zero) {
		return errors.Errorf("profit threshold must be positive, got %s", threshold.String())
	}

	l.defaultThreshold = threshold
	for _, p := range l.positions {
		p.ProfitThresholdPercent = threshold
	}

	return l.persist()
}

// Position returns a copy of the symbol's position.
func (l *Ledger) Position(symbol domain.Symbol) (domain.Position, bool) {
	p, ok := l.positions[symbol]
	if !ok {
		return domain.Position{}, false
	}
	return *p, true
}

// OpenPositions returns copies of all positions with quantity > 0, ordered by
// symbol for stable iteration.
func (l *Ledger) OpenPositions() []domain.Position {
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		if p.IsOpen() {
			out = append(out, *p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) persist() error {
	if l.store == nil {
		return nil
	}

	all := make([]*domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Symbol < all[j].Symbol })

	data, err := json.Marshal(all)
	if err != nil {
		return errors.Wrap(err, "encode positions")
	}

	return l.store.Set(positionsKey, string(data))
}
