package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPositionRecordFillWeightedAverage(t *testing.T) {
	p := &Position{Symbol: "SOL"}

	ok := p.RecordFill(decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now())
	require.True(t, ok)
	require.True(t, p.Quantity.Equal(decimal.NewFromInt(10)))
	require.True(t, p.AverageCost.Equal(decimal.NewFromInt(100)))

	ok = p.RecordFill(decimal.NewFromInt(30), decimal.NewFromInt(120), time.Now())
	require.True(t, ok)

	// (10*100 + 30*120) / 40 = 115
	require.True(t, p.Quantity.Equal(decimal.NewFromInt(40)))
	require.True(t, p.AverageCost.Equal(decimal.NewFromInt(115)),
		"expected weighted average cost 115, got %s", p.AverageCost.String())
}

func TestPositionRecordFillRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		quantity decimal.Decimal
		price    decimal.Decimal
	}{
		{"zero quantity", decimal.Zero, decimal.NewFromInt(100)},
		{"negative quantity", decimal.NewFromInt(-1), decimal.NewFromInt(100)},
		{"zero price", decimal.NewFromInt(1), decimal.Zero},
		{"negative price", decimal.NewFromInt(1), decimal.NewFromInt(-100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{Symbol: "BTC"}
			require.False(t, p.RecordFill(tt.quantity, tt.price, time.Now()))
			require.False(t, p.IsOpen())
		})
	}
}

func TestPositionRevalue(t *testing.T) {
	p := &Position{Symbol: "SOL"}
	require.True(t, p.RecordFill(decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	p.Revalue(decimal.NewFromInt(106))

	require.True(t, p.CurrentValue.Equal(decimal.NewFromInt(1060)))
	require.True(t, p.UnrealizedProfit.Equal(decimal.NewFromInt(60)))
	require.True(t, p.UnrealizedProfitPercent.Equal(decimal.NewFromInt(6)),
		"expected 6%% profit, got %s", p.UnrealizedProfitPercent.String())
}

func TestPositionRevalueZeroCostBasis(t *testing.T) {
	p := &Position{Symbol: "SOL"}
	p.Revalue(decimal.NewFromInt(100))

	require.True(t, p.UnrealizedProfitPercent.IsZero(), "profit percent must be zero with no cost basis")
}

func TestPositionReset(t *testing.T) {
	p := &Position{Symbol: "SOL"}
	require.True(t, p.RecordFill(decimal.NewFromInt(5), decimal.NewFromInt(50), time.Now()))
	p.SellOrderPlaced = true
	p.SellOrderID = "abc"

	p.Reset()

	require.False(t, p.IsOpen())
	require.False(t, p.SellOrderPlaced)
	require.Empty(t, p.SellOrderID)
	require.True(t, p.AverageCost.IsZero())
}
