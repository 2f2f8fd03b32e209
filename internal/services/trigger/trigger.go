// Package trigger watches the primary token's price against a lower trigger
// band and turns downward crossings into rebalance requests.
package trigger

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Monitor is an edge-triggered two-state machine: Monitoring until the price
// crosses from at-or-above the trigger to below it, Triggered until the price
// recovers. A rebalance is requested exactly once per entry into Triggered,
// so the engine does not fire on every tick while the price lingers below the
// band. The cooldown suppresses requests entirely; suppressed requests are
// not deferred.
type Monitor struct {
	logger *zap.Logger

	triggerPrice decimal.Decimal
	cooldown     time.Duration

	active        bool
	lastPrice     decimal.Decimal
	hasLastPrice  bool
	cooldownUntil time.Time
}

// NewMonitor creates a monitor for the given trigger price and cooldown.
func NewMonitor(logger *zap.Logger, triggerPrice decimal.Decimal, cooldown time.Duration) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{logger: logger, triggerPrice: triggerPrice, cooldown: cooldown}
}

// Observe feeds one tick's price into the state machine and reports whether a
// rebalance should be initiated. An unknown previous price counts as being at
// or above the trigger, so a first observation below the band fires.
func (m *Monitor) Observe(price decimal.Decimal, now time.Time) bool {
	prevPrice, hadPrev := m.lastPrice, m.hasLastPrice
	m.lastPrice = price
	m.hasLastPrice = true

	if m.active {
		if price.GreaterThanOrEqual(m.triggerPrice) {
			m.active = false
			m.logger.Info("trigger cleared",
				zap.String("price", price.String()),
				zap.String("trigger_price", m.triggerPrice.String()))
		}
		return false
	}

	crossedDown := price.LessThan(m.triggerPrice) &&
		(!hadPrev || prevPrice.GreaterThanOrEqual(m.triggerPrice))
	if !crossedDown {
		return false
	}

	m.active = true
	m.logger.Info("trigger activated",
		zap.String("price", price.String()),
		zap.String("trigger_price", m.triggerPrice.String()))

	if now.Before(m.cooldownUntil) {
		m.logger.Info("rebalance suppressed by cooldown",
			zap.Time("cooldown_until", m.cooldownUntil))
		return false
	}

	return true
}

// StartCooldown is called after a rebalance attempt completes, successfully
// or not, so a persistent dip cannot hammer the order service.
func (m *Monitor) StartCooldown(now time.Time) {
	m.cooldownUntil = now.Add(m.cooldown)
}

// InCooldown reports whether new rebalance requests are currently suppressed.
func (m *Monitor) InCooldown(now time.Time) bool {
	return now.Before(m.cooldownUntil)
}

// Active reports whether the price is currently below the trigger band.
func (m *Monitor) Active() bool {
	return m.active
}

// TriggerPrice returns the configured lower trigger band.
func (m *Monitor) TriggerPrice() decimal.Decimal {
	return m.triggerPrice
}

// SetTriggerPrice updates the band; the edge detection continues from the
// last observed price.
func (m *Monitor) SetTriggerPrice(price decimal.Decimal) {
	m.triggerPrice = price
}

// CooldownUntil returns when the current cooldown expires.
func (m *Monitor) CooldownUntil() time.Time {
	return m.cooldownUntil
}
