// Package rebalance buys the basket with equal-weight allocations when the
// trigger monitor requests it.
package rebalance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// DefaultMinimumTotal is the smallest quote balance worth splitting across a
// basket; below it the rebalance aborts without placing any orders.
var DefaultMinimumTotal = decimal.NewFromInt(40)

type orderExecutor interface {
	PlaceMarketBuy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, clientOrderID string) (domain.OrderResult, error)
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

type fillRecorder interface {
	RecordFill(symbol domain.Symbol, quantity, price decimal.Decimal, at time.Time) error
}

type rebaseAdvisor interface {
	ShouldSkipPrimaryBuy(price decimal.Decimal) bool
}

// Engine executes equal-allocation basket purchases. Buys run concurrently
// with independent per-symbol error handling: one rejected order never blocks
// its siblings.
type Engine struct {
	logger        *zap.Logger
	basket        domain.Basket
	executor      orderExecutor
	ledger        fillRecorder
	advisor       rebaseAdvisor
	actionLog     *domain.ActionLog
	quoteCurrency string
	minimumTotal  decimal.Decimal

	mu sync.Mutex // serializes ledger writes from concurrent buy goroutines
}

// NewEngine creates a rebalance engine. advisor may be nil to disable the
// peg-favorability filter.
func NewEngine(logger *zap.Logger, basket domain.Basket, executor orderExecutor, ledger fillRecorder,
	advisor rebaseAdvisor, actionLog *domain.ActionLog, quoteCurrency string, minimumTotal decimal.Decimal) *Engine {

	if logger == nil {
		logger = zap.NewNop()
	}
	if minimumTotal.LessThanOrEqual(decimal.Zero) {
		minimumTotal = DefaultMinimumTotal
	}

	return &Engine{
		logger:        logger,
		basket:        basket,
		executor:      executor,
		ledger:        ledger,
		advisor:       advisor,
		actionLog:     actionLog,
		quoteCurrency: quoteCurrency,
		minimumTotal:  minimumTotal,
	}
}

// Execute performs one equal-allocation purchase across the basket. The
// allocation is the full available balance divided by the basket size even
// when the advisory filter drops the primary symbol from the plan. Returns
// domain.ErrInsufficientBalance when the balance is below the minimum; the
// caller decides cooldown policy.
func (e *Engine) Execute(ctx context.Context, snapshot domain.MarketSnapshot) error {
	balance, err := e.executor.GetBalance(ctx, e.quoteCurrency)
	if err != nil {
		return errors.Wrapf(err, "fetch %s balance", e.quoteCurrency)
	}

	if balance.LessThan(e.minimumTotal) {
		e.actionLog.Appendf("rebalance aborted: balance %s %s below minimum %s",
			balance.String(), e.quoteCurrency, e.minimumTotal.String())
		return errors.Wrapf(domain.ErrInsufficientBalance, "have %s, need %s",
			balance.String(), e.minimumTotal.String())
	}

	allocation := balance.Div(decimal.NewFromInt(int64(e.basket.Size())))
	plan := e.plan(snapshot)

	e.logger.Info("executing rebalance",
		zap.String("balance", balance.String()),
		zap.String("allocation_per_symbol", allocation.String()),
		zap.Int("symbols", len(plan)))

	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range plan {
		g.Go(func() error {
			e.buy(gctx, symbol, allocation, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	return nil
}

// plan returns the basket, minus the primary symbol when the advisor judges a
// positive rebase likely (holding beats buying). Advisory only; an unknown
// primary price keeps the full basket.
func (e *Engine) plan(snapshot domain.MarketSnapshot) []domain.Symbol {
	if e.advisor == nil {
		return e.basket.Symbols
	}

	price, ok := snapshot.Price(e.basket.Primary)
	if !ok || !e.advisor.ShouldSkipPrimaryBuy(price) {
		return e.basket.Symbols
	}

	plan := make([]domain.Symbol, 0, e.basket.Size()-1)
	for _, s := range e.basket.Symbols {
		if s != e.basket.Primary {
			plan = append(plan, s)
		}
	}

	e.actionLog.Appendf("rebalance: skipping %s buy, price %s is comfortably above peg",
		e.basket.Primary, price.String())
	return plan
}

func (e *Engine) buy(ctx context.Context, symbol domain.Symbol, notional decimal.Decimal, snapshot domain.MarketSnapshot) {
	clientOrderID := uuid.New().String()

	result, err := e.executor.PlaceMarketBuy(ctx, symbol, notional, clientOrderID)
	if err != nil {
		e.logger.Error("rebalance buy failed",
			zap.String("symbol", string(symbol)),
			zap.String("notional", notional.String()),
			zap.Error(err))
		e.actionLog.Appendf("rebalance: buy %s for %s %s failed: %v",
			symbol, notional.String(), e.quoteCurrency, err)
		return
	}

	fillPrice := result.FilledPrice
	if !fillPrice.IsPositive() {
		// some venues omit the average price on market fills
		if snapPrice, ok := snapshot.Price(symbol); ok {
			fillPrice = snapPrice
		}
	}

	quantity := result.FilledQuantity
	if !quantity.IsPositive() {
		// some venues acknowledge a market buy with the order id only; derive
		// the quantity from the spent notional at the best known price
		if !fillPrice.IsPositive() {
			e.logger.Error("cannot derive fill quantity, no price known",
				zap.String("symbol", string(symbol)),
				zap.String("order_id", result.OrderID))
			e.actionLog.Appendf("rebalance: bought %s for %s %s but could not record the fill (order %s)",
				symbol, notional.String(), e.quoteCurrency, result.OrderID)
			return
		}
		quantity = notional.Div(fillPrice)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.RecordFill(symbol, quantity, fillPrice, time.Now()); err != nil {
		e.logger.Error("failed to record fill",
			zap.String("symbol", string(symbol)),
			zap.Error(err))
	}

	e.actionLog.Appendf("rebalance: bought %s %s for %s %s (order %s)",
		quantity.String(), symbol, notional.String(), e.quoteCurrency, result.OrderID)
}
