package internal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/config"
	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/ledger"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/rebase"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/trigger"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/settings"
	"github.com/dsox1/amplalgo-app-sub000/pkg/indicators"
)

// PriceProvider supplies the latest prices for the basket symbols. A partial
// map is acceptable: unknown symbols keep their last observed value.
type PriceProvider interface {
	FetchPrices(ctx context.Context, symbols []domain.Symbol) (map[domain.Symbol]decimal.Decimal, error)
}

type rebalancer interface {
	Execute(ctx context.Context, snapshot domain.MarketSnapshot) error
}

type profitTaker interface {
	Scan(ctx context.Context, snapshot domain.MarketSnapshot)
	Reconcile(ctx context.Context)
}

// Status is a point-in-time view of the engine for the dashboard.
type Status struct {
	Platform               string                 `json:"platform"`
	Basket                 []domain.Symbol        `json:"basket"`
	Primary                domain.Symbol          `json:"primary"`
	Prices                 map[string]string      `json:"prices"`
	TriggerPrice           string                 `json:"trigger_price"`
	TriggerActive          bool                   `json:"trigger_active"`
	InCooldown             bool                   `json:"in_cooldown"`
	CooldownUntil          time.Time              `json:"cooldown_until,omitempty"`
	ProfitThresholdPercent string                 `json:"profit_threshold_percent"`
	Rebase                 domain.RebaseRiskState `json:"rebase"`
	Positions              []domain.Position      `json:"positions"`
	Trend                  *indicators.Trend      `json:"trend,omitempty"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// Engine wires the price feed, trigger monitor, rebalance and profit engines
// and the rebase estimator into one polling loop. All mutating entry points
// are serialized by a single mutex so a dashboard settings change never races
// a tick in flight.
type Engine struct {
	logger    *zap.Logger
	conf      config.Config
	provider  PriceProvider
	monitor   *trigger.Monitor
	ledger    *ledger.Ledger
	estimator *rebase.Estimator
	rebalance rebalancer
	profit    profitTaker
	store     *settings.Store
	actionLog *domain.ActionLog
	trend     *indicators.Tracker

	mu        sync.Mutex
	snapshot  domain.MarketSnapshot
	riskState domain.RebaseRiskState
}

// Deps carries the collaborators NewEngine wires together. Exchange-specific
// construction happens in cmd, so the engine itself stays platform-agnostic.
type Deps struct {
	Provider  PriceProvider
	Monitor   *trigger.Monitor
	Ledger    *ledger.Ledger
	Estimator *rebase.Estimator
	Rebalance rebalancer
	Profit    profitTaker
	Store     *settings.Store
	ActionLog *domain.ActionLog
}

// NewEngine assembles the engine from pre-built collaborators.
func NewEngine(logger *zap.Logger, conf config.Config, deps Deps) (*Engine, error) {
	if deps.Provider == nil {
		return nil, errors.New("price provider is required")
	}
	if deps.Monitor == nil || deps.Ledger == nil || deps.Rebalance == nil || deps.Profit == nil {
		return nil, errors.New("monitor, ledger, rebalance and profit engines are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		logger:    logger,
		conf:      conf,
		provider:  deps.Provider,
		monitor:   deps.Monitor,
		ledger:    deps.Ledger,
		estimator: deps.Estimator,
		rebalance: deps.Rebalance,
		profit:    deps.Profit,
		store:     deps.Store,
		actionLog: deps.ActionLog,
		trend:     indicators.NewTracker(0),
		snapshot:  domain.NewMarketSnapshot(),
	}, nil
}

// Run polls prices on the configured interval until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.conf.PollPriceInterval)
	defer ticker.Stop()

	e.logger.Info("starting engine loop",
		zap.String("primary", string(e.conf.Basket.Primary)),
		zap.Duration("poll_interval", e.conf.PollPriceInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("context done, stopping engine loop")
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.logger.Error("tick failed", zap.Error(err))
			}
		}
	}
}

// Tick runs one full evaluation cycle: refresh prices, reconcile pending
// sells, evaluate rebase risk, check the trigger and act on it, then scan
// for profit-taking opportunities.
func (e *Engine) Tick(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prices, err := e.provider.FetchPrices(ctx, e.conf.Basket.Symbols)
	if err != nil {
		return errors.Wrap(err, "fetch prices")
	}

	now := time.Now()
	e.snapshot = e.snapshot.Merge(prices, now)
	e.ledger.Revalue(e.snapshot)

	e.profit.Reconcile(ctx)

	primaryPrice, havePrimary := e.snapshot.Price(e.conf.Basket.Primary)
	if havePrimary {
		e.trend.Observe(primaryPrice)
	}
	if havePrimary && e.estimator != nil {
		e.riskState = e.estimator.Evaluate(primaryPrice)
		if err := e.estimator.CheckEmergency(ctx, primaryPrice); err != nil {
			e.logger.Error("emergency liquidation failed", zap.Error(err))
		}
	}

	if havePrimary && e.monitor.Observe(primaryPrice, now) {
		e.fireRebalance(ctx, now)
	}

	e.profit.Scan(ctx, e.snapshot)
	return nil
}

// fireRebalance runs one rebalance attempt. The cooldown starts no matter
// how the attempt ends, so a failed attempt is not immediately retried on
// the next downward wiggle.
func (e *Engine) fireRebalance(ctx context.Context, now time.Time) {
	err := e.rebalance.Execute(ctx, e.snapshot)
	e.monitor.StartCooldown(now)

	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		e.logger.Warn("rebalance skipped", zap.Error(err))
	case err != nil:
		e.logger.Error("rebalance failed", zap.Error(err))
	default:
		e.logger.Info("rebalance completed",
			zap.String("trigger_price", e.monitor.TriggerPrice().String()))
	}
}

// SetProfitThreshold updates the profit-taking threshold for all open
// positions and persists it.
func (e *Engine) SetProfitThreshold(threshold decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.SetProfitThreshold(threshold); err != nil {
		return err
	}
	if e.actionLog != nil {
		e.actionLog.Appendf("profit threshold set to %s%%", threshold.String())
	}
	if e.store != nil {
		return e.store.SetDecimal(settings.KeyProfitThresholdPercent, threshold)
	}
	return nil
}

// SetTriggerPrice updates the rebalance trigger price and persists it.
func (e *Engine) SetTriggerPrice(price decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !price.IsPositive() {
		return errors.Errorf("trigger price must be positive, got %s", price.String())
	}
	e.monitor.SetTriggerPrice(price)
	if e.actionLog != nil {
		e.actionLog.Appendf("trigger price set to %s", price.String())
	}
	if e.store != nil {
		return e.store.SetDecimal(settings.KeyTriggerPrice, price)
	}
	return nil
}

// SetProtectionActive toggles rebase protection and persists it.
func (e *Engine) SetProtectionActive(active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.estimator != nil {
		e.estimator.SetProtectionActive(active)
	}
	if e.actionLog != nil {
		e.actionLog.Appendf("rebase protection set to %t", active)
	}
	if e.store != nil {
		return e.store.SetBool(settings.KeyProtectionActive, active)
	}
	return nil
}

// Status returns a snapshot of engine state for the dashboard.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	prices := make(map[string]string, len(e.snapshot.Prices))
	for sym, price := range e.snapshot.Prices {
		prices[string(sym)] = price.String()
	}

	threshold := e.conf.ProfitThresholdPercent
	if positions := e.ledger.OpenPositions(); len(positions) > 0 {
		threshold = positions[0].ProfitThresholdPercent
	}

	var trendPtr *indicators.Trend
	if trend, ok := e.trend.Trend(); ok {
		trendPtr = &trend
	}

	return Status{
		Platform:               e.conf.Platform,
		Basket:                 e.conf.Basket.Symbols,
		Primary:                e.conf.Basket.Primary,
		Prices:                 prices,
		TriggerPrice:           e.monitor.TriggerPrice().String(),
		TriggerActive:          e.monitor.Active(),
		InCooldown:             e.monitor.InCooldown(now),
		CooldownUntil:          e.monitor.CooldownUntil(),
		ProfitThresholdPercent: threshold.String(),
		Rebase:                 e.riskState,
		Positions:              e.ledger.OpenPositions(),
		Trend:                  trendPtr,
		UpdatedAt:              e.snapshot.ObservedAt,
	}
}

// ActionLog exposes the bounded action history for the dashboard stream.
func (e *Engine) ActionLog() *domain.ActionLog {
	return e.actionLog
}
