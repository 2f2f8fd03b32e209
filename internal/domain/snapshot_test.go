package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMarketSnapshotMergeKeepsStalePrices(t *testing.T) {
	base := NewMarketSnapshot().Merge(map[Symbol]decimal.Decimal{
		"AMPL": decimal.NewFromFloat(1.20),
		"SOL":  decimal.NewFromInt(100),
	}, time.Now())

	// partial fetch: SOL missing this round
	next := base.Merge(map[Symbol]decimal.Decimal{
		"AMPL": decimal.NewFromFloat(1.10),
	}, time.Now())

	price, ok := next.Price("AMPL")
	require.True(t, ok)
	require.True(t, price.Equal(decimal.NewFromFloat(1.10)))

	price, ok = next.Price("SOL")
	require.True(t, ok, "stale price must survive a partial fetch")
	require.True(t, price.Equal(decimal.NewFromInt(100)))
}

func TestMarketSnapshotMergeIgnoresNonPositive(t *testing.T) {
	base := NewMarketSnapshot().Merge(map[Symbol]decimal.Decimal{
		"BTC": decimal.NewFromInt(60000),
	}, time.Now())

	next := base.Merge(map[Symbol]decimal.Decimal{
		"BTC": decimal.Zero,
	}, time.Now())

	price, ok := next.Price("BTC")
	require.True(t, ok)
	require.True(t, price.Equal(decimal.NewFromInt(60000)))
}

func TestMarketSnapshotUnknownSymbol(t *testing.T) {
	snap := NewMarketSnapshot()
	_, ok := snap.Price("SUI")
	require.False(t, ok)
}

func TestMarketSnapshotMergeDoesNotMutateReceiver(t *testing.T) {
	base := NewMarketSnapshot().Merge(map[Symbol]decimal.Decimal{
		"AMPL": decimal.NewFromFloat(1.20),
	}, time.Now())

	_ = base.Merge(map[Symbol]decimal.Decimal{
		"AMPL": decimal.NewFromFloat(0.90),
	}, time.Now())

	price, _ := base.Price("AMPL")
	require.True(t, price.Equal(decimal.NewFromFloat(1.20)))
}
