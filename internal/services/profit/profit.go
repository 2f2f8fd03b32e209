// Package profit sells open positions once their unrealized profit crosses
// the configured threshold (core logic here; order reconciliation in
// reconciliation.go).
package profit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// DefaultSellDiscount prices the limit sell 0.1% below the current market
// price to favor a prompt fill.
var DefaultSellDiscount = decimal.NewFromFloat(0.001)

var one = decimal.NewFromInt(1)

type orderExecutor interface {
	PlaceLimitSell(ctx context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, clientOrderID string) (string, error)
	ListOpenOrders(ctx context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error)
}

type positionLedger interface {
	OpenPositions() []domain.Position
	MarkSellPlaced(symbol domain.Symbol, orderID string) error
	Clear(symbol domain.Symbol) error
}

// Engine scans revalued positions and issues at most one sell request per
// position. The SellOrderPlaced flag is the idempotency mechanism: once set,
// repeated ticks skip the position until reconciliation clears it.
type Engine struct {
	logger       *zap.Logger
	executor     orderExecutor
	ledger       positionLedger
	actionLog    *domain.ActionLog
	sellDiscount decimal.Decimal
}

// NewEngine creates a profit-taking engine.
func NewEngine(logger *zap.Logger, executor orderExecutor, ledger positionLedger, actionLog *domain.ActionLog) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:       logger,
		executor:     executor,
		ledger:       ledger,
		actionLog:    actionLog,
		sellDiscount: DefaultSellDiscount,
	}
}

// Scan walks every open position without an outstanding sell and places a
// limit sell for the full quantity once the profit threshold is crossed.
// Positions must have been revalued against the snapshot beforehand. A failed
// placement is logged and retried naturally on the next tick.
func (e *Engine) Scan(ctx context.Context, snapshot domain.MarketSnapshot) {
	for _, position := range e.ledger.OpenPositions() {
		if position.SellOrderPlaced {
			continue
		}
		if !position.ProfitThresholdPercent.IsPositive() {
			continue
		}
		if position.UnrealizedProfitPercent.LessThan(position.ProfitThresholdPercent) {
			continue
		}

		price, ok := snapshot.Price(position.Symbol)
		if !ok {
			continue
		}

		limitPrice := price.Mul(one.Sub(e.sellDiscount))
		clientOrderID := uuid.New().String()

		orderID, err := e.executor.PlaceLimitSell(ctx, position.Symbol, position.Quantity, limitPrice, clientOrderID)
		if err != nil {
			e.logger.Error("profit-taking sell failed",
				zap.String("symbol", string(position.Symbol)),
				zap.String("quantity", position.Quantity.String()),
				zap.Error(err))
			e.actionLog.Appendf("profit take: sell %s %s failed: %v",
				position.Quantity.String(), position.Symbol, err)
			continue
		}

		if err := e.ledger.MarkSellPlaced(position.Symbol, orderID); err != nil {
			e.logger.Error("failed to mark sell placed",
				zap.String("symbol", string(position.Symbol)),
				zap.Error(err))
			continue
		}

		e.logger.Info("profit-taking sell placed",
			zap.String("symbol", string(position.Symbol)),
			zap.String("quantity", position.Quantity.String()),
			zap.String("limit_price", limitPrice.String()),
			zap.String("profit_percent", position.UnrealizedProfitPercent.String()),
			zap.String("order_id", orderID))
		e.actionLog.Appendf("profit take: selling %s %s at %s (%s%% profit, order %s)",
			position.Quantity.String(), position.Symbol, limitPrice.String(),
			position.UnrealizedProfitPercent.StringFixed(2), orderID)
	}
}
