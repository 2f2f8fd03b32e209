package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/settings"
)

func newTestLedger(t *testing.T) (*Ledger, *settings.Store) {
	t.Helper()

	store, err := settings.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := New(zap.NewNop(), store, decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	return l, store
}

func TestLedgerRecordFillCreatesPosition(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	p, ok := l.Position("SOL")
	require.True(t, ok)
	require.True(t, p.Quantity.Equal(decimal.NewFromInt(10)))
	require.True(t, p.ProfitThresholdPercent.Equal(decimal.NewFromFloat(1.5)))
}

func TestLedgerInvalidFillIsNoop(t *testing.T) {
	l, _ := newTestLedger(t)

	require.NoError(t, l.RecordFill("SOL", decimal.Zero, decimal.NewFromInt(100), time.Now()))
	require.Empty(t, l.OpenPositions())
}

func TestLedgerRevalueSkipsUnpricedSymbols(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))
	require.NoError(t, l.RecordFill("SUI", decimal.NewFromInt(5), decimal.NewFromInt(2), time.Now()))

	snap := domain.NewMarketSnapshot().Merge(map[domain.Symbol]decimal.Decimal{
		"SOL": decimal.NewFromInt(106),
	}, time.Now())
	l.Revalue(snap)

	sol, _ := l.Position("SOL")
	require.True(t, sol.UnrealizedProfitPercent.Equal(decimal.NewFromInt(6)))

	sui, _ := l.Position("SUI")
	require.True(t, sui.UnrealizedProfitPercent.IsZero(), "unpriced symbol must not be revalued")
}

func TestLedgerSetProfitThresholdAppliesToOpenPositions(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	require.NoError(t, l.SetProfitThreshold(decimal.NewFromInt(5)))

	p, _ := l.Position("SOL")
	require.True(t, p.ProfitThresholdPercent.Equal(decimal.NewFromInt(5)))

	require.Error(t, l.SetProfitThreshold(decimal.Zero))
}

func TestLedgerSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := settings.NewStore(dir)
	require.NoError(t, err)

	l, err := New(zap.NewNop(), store, decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	require.NoError(t, l.RecordFill("AMPL", decimal.NewFromInt(100), decimal.NewFromFloat(1.10), time.Now()))
	require.NoError(t, l.MarkSellPlaced("AMPL", "order-1"))
	require.NoError(t, store.Close())

	reopened, err := settings.NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := New(zap.NewNop(), reopened, decimal.NewFromFloat(1.5))
	require.NoError(t, err)

	p, ok := restored.Position("AMPL")
	require.True(t, ok)
	require.True(t, p.Quantity.Equal(decimal.NewFromInt(100)))
	require.True(t, p.SellOrderPlaced)
	require.Equal(t, "order-1", p.SellOrderID)
}

func TestLedgerClear(t *testing.T) {
	l, _ := newTestLedger(t)
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))
	require.NoError(t, l.MarkSellPlaced("SOL", "order-9"))

	require.NoError(t, l.Clear("SOL"))

	p, ok := l.Position("SOL")
	require.True(t, ok)
	require.False(t, p.IsOpen())
	require.False(t, p.SellOrderPlaced)
	require.Empty(t, l.OpenPositions())

	// clearing an unknown symbol is not an error
	require.NoError(t, l.Clear("BTC"))
}
