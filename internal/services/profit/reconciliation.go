package profit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// Reconcile checks every position with an outstanding sell against the
// exchange's open-orders list. An order that has disappeared is treated as
// filled — the signal cannot distinguish a fill from an external cancel, so
// the clear is optimistic and the log entry flags the ambiguity for operator
// review. A failed listing means "unknown outcome": the position is left
// alone and checked again next tick.
func (e *Engine) Reconcile(ctx context.Context) {
	for _, position := range e.ledger.OpenPositions() {
		if !position.SellOrderPlaced || position.SellOrderID == "" {
			continue
		}

		openOrders, err := e.executor.ListOpenOrders(ctx, position.Symbol)
		if err != nil {
			e.logger.Warn("open-orders listing failed, will retry next tick",
				zap.String("symbol", string(position.Symbol)),
				zap.Error(err))
			continue
		}

		if containsOrder(openOrders, position.SellOrderID) {
			continue
		}

		e.logger.Info("tracked sell order no longer open, treating as filled",
			zap.String("symbol", string(position.Symbol)),
			zap.String("order_id", position.SellOrderID))
		e.actionLog.Appendf("profit take: order %s for %s gone from open orders, assuming filled (ambiguous: may have been cancelled externally)",
			position.SellOrderID, position.Symbol)

		if err := e.ledger.Clear(position.Symbol); err != nil {
			e.logger.Error("failed to clear position after reconciliation",
				zap.String("symbol", string(position.Symbol)),
				zap.Error(err))
		}
	}
}

func containsOrder(orders []domain.OpenOrder, orderID string) bool {
	for _, o := range orders {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}
