package trigger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func price(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func TestMonitorFiresOnceWhilePriceStaysBelow(t *testing.T) {
	m := NewMonitor(zap.NewNop(), price(1.16), 5*time.Minute)
	now := time.Now()

	require.False(t, m.Observe(price(1.20), now), "above trigger must not fire")
	require.True(t, m.Observe(price(1.10), now), "downward crossing must fire")

	// price lingers below the band for many ticks
	for i := 0; i < 10; i++ {
		require.False(t, m.Observe(price(1.10), now), "tick %d must not re-fire", i)
	}
	require.True(t, m.Active())
}

func TestMonitorFiresOnFirstObservationBelowTrigger(t *testing.T) {
	m := NewMonitor(zap.NewNop(), price(1.16), 5*time.Minute)

	require.True(t, m.Observe(price(1.10), time.Now()), "unknown previous price counts as above trigger")
}

func TestMonitorRearmsAfterRecovery(t *testing.T) {
	m := NewMonitor(zap.NewNop(), price(1.16), 0)
	now := time.Now()

	require.True(t, m.Observe(price(1.10), now))
	require.False(t, m.Observe(price(1.18), now), "recovery must not fire")
	require.False(t, m.Active())

	require.True(t, m.Observe(price(1.12), now), "second crossing must fire again")
}

func TestMonitorCooldownSuppressesRequests(t *testing.T) {
	m := NewMonitor(zap.NewNop(), price(1.16), 5*time.Minute)
	now := time.Now()

	require.True(t, m.Observe(price(1.10), now))
	m.StartCooldown(now)
	require.True(t, m.InCooldown(now))

	// recover and re-trigger inside the cooldown window
	m.Observe(price(1.20), now.Add(time.Minute))
	require.False(t, m.Observe(price(1.10), now.Add(2*time.Minute)),
		"request inside cooldown must be suppressed, not deferred")

	// after the cooldown a fresh crossing fires again
	m.Observe(price(1.20), now.Add(6*time.Minute))
	require.True(t, m.Observe(price(1.10), now.Add(7*time.Minute)))
	require.False(t, m.InCooldown(now.Add(6*time.Minute)))
}

func TestMonitorSetTriggerPrice(t *testing.T) {
	m := NewMonitor(zap.NewNop(), price(1.16), 0)
	now := time.Now()

	require.False(t, m.Observe(price(1.30), now))
	m.SetTriggerPrice(price(1.25))

	// previous observation was above the new band, this one below it
	require.True(t, m.Observe(price(1.19), now))
}
