package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCalculateEMANotEnoughData(t *testing.T) {
	_, err := CalculateEMA([]decimal.Decimal{decimal.NewFromInt(1)}, 20)
	require.Error(t, err)
}

func TestTrackerTrend(t *testing.T) {
	tracker := NewTracker(100)

	_, ok := tracker.Trend()
	require.False(t, ok, "no trend before enough samples")

	// steadily rising series
	for i := 0; i < 40; i++ {
		tracker.Observe(decimal.NewFromInt(100).Add(decimal.NewFromInt(int64(i))))
	}

	trend, ok := tracker.Trend()
	require.True(t, ok)
	require.Equal(t, "up", trend.Direction)
	require.Equal(t, 40, trend.Samples)
	require.True(t, trend.RSI14.GreaterThan(decimal.NewFromInt(50)),
		"rising series should have RSI above 50, got %s", trend.RSI14.String())
}

func TestTrackerIgnoresInvalidAndBoundsHistory(t *testing.T) {
	tracker := NewTracker(10)
	tracker.Observe(decimal.Zero)
	tracker.Observe(decimal.NewFromInt(-5))

	for i := 0; i < 25; i++ {
		tracker.Observe(decimal.NewFromInt(int64(i + 1)))
	}

	_, ok := tracker.Trend()
	require.False(t, ok, "capacity 10 is below the EMA warmup")

	trend, _ := tracker.Trend()
	require.Equal(t, 10, trend.Samples)
}
