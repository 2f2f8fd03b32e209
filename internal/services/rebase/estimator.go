// Package rebase scores how far the rebasing token sits from its peg and
// turns severe downside deviations into emergency liquidations.
package rebase

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

// DefaultSkipBuyDeviation is the upside deviation above which buying the
// rebasing token is skipped: a positive rebase is likely, so holding beats
// buying. Advisory only.
var DefaultSkipBuyDeviation = decimal.NewFromFloat(0.05)

// emergencyDeviation is the downside deviation past which an active
// protection toggle liquidates the primary position.
var emergencyDeviation = decimal.NewFromFloat(0.10)

type orderExecutor interface {
	PlaceMarketSell(ctx context.Context, symbol domain.Symbol, quantity decimal.Decimal, clientOrderID string) (domain.OrderResult, error)
}

type positionLedger interface {
	Position(symbol domain.Symbol) (domain.Position, bool)
	Clear(symbol domain.Symbol) error
}

// Estimator owns the rebase-risk state for the primary symbol.
type Estimator struct {
	logger    *zap.Logger
	primary   domain.Symbol
	executor  orderExecutor
	ledger    positionLedger
	actionLog *domain.ActionLog

	protectionActive bool
	skipBuyDeviation decimal.Decimal
}

// NewEstimator creates an estimator for the primary rebasing symbol.
func NewEstimator(logger *zap.Logger, primary domain.Symbol, executor orderExecutor, ledger positionLedger, actionLog *domain.ActionLog, protectionActive bool) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		logger:           logger,
		primary:          primary,
		executor:         executor,
		ledger:           ledger,
		actionLog:        actionLog,
		protectionActive: protectionActive,
		skipBuyDeviation: DefaultSkipBuyDeviation,
	}
}

// Evaluate computes the risk state for the given primary-token price.
func (e *Estimator) Evaluate(price decimal.Decimal) domain.RebaseRiskState {
	deviation := domain.PegDeviation(price, domain.PegPrice)
	return domain.RebaseRiskState{
		TargetPrice:      domain.PegPrice,
		CurrentPrice:     price,
		Deviation:        deviation,
		ProtectionStatus: domain.ProtectionStatus(deviation),
		ProtectionActive: e.protectionActive,
	}
}

// ShouldSkipPrimaryBuy advises the rebalance engine to leave the primary
// symbol out of an allocation plan when its price is comfortably above peg.
func (e *Estimator) ShouldSkipPrimaryBuy(price decimal.Decimal) bool {
	if !price.GreaterThan(domain.PegPrice) {
		return false
	}
	return domain.PegDeviation(price, domain.PegPrice).GreaterThan(e.skipBuyDeviation)
}

// SetSkipBuyDeviation overrides the advisory upside threshold.
func (e *Estimator) SetSkipBuyDeviation(deviation decimal.Decimal) {
	e.skipBuyDeviation = deviation
}

// SetProtectionActive toggles automatic emergency liquidation.
func (e *Estimator) SetProtectionActive(active bool) {
	e.protectionActive = active
}

// ProtectionActive reports the toggle state.
func (e *Estimator) ProtectionActive() bool {
	return e.protectionActive
}

// CheckEmergency liquidates the primary position at market when protection is
// active and the price has fallen more than 10% below peg, where a negative
// rebase (quantity reduction) is likely. Independent of the profit-taking
// threshold path.
func (e *Estimator) CheckEmergency(ctx context.Context, price decimal.Decimal) error {
	if !e.protectionActive {
		return nil
	}
	if price.GreaterThanOrEqual(domain.PegPrice) {
		return nil
	}
	if !domain.PegDeviation(price, domain.PegPrice).GreaterThan(emergencyDeviation) {
		return nil
	}

	position, ok := e.ledger.Position(e.primary)
	if !ok || !position.IsOpen() {
		return nil
	}

	clientOrderID := uuid.New().String()
	result, err := e.executor.PlaceMarketSell(ctx, e.primary, position.Quantity, clientOrderID)
	if err != nil {
		e.actionLog.Appendf("emergency liquidation of %s failed: %v", e.primary, err)
		return errors.Wrapf(err, "emergency liquidation for %s", e.primary)
	}

	e.logger.Warn("emergency liquidation executed",
		zap.String("symbol", string(e.primary)),
		zap.String("quantity", position.Quantity.String()),
		zap.String("price", price.String()),
		zap.String("order_id", result.OrderID))
	e.actionLog.Appendf("emergency liquidation: sold %s %s at market (price %s below peg)",
		position.Quantity.String(), e.primary, price.String())

	return e.ledger.Clear(e.primary)
}
