package profit

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
	"github.com/dsox1/amplalgo-app-sub000/internal/services/ledger"
	"github.com/dsox1/amplalgo-app-sub000/internal/storage/settings"
)

type sellCall struct {
	symbol   domain.Symbol
	quantity decimal.Decimal
	limit    decimal.Decimal
}

type fakeExecutor struct {
	sells      []sellCall
	sellErr    error
	openOrders map[domain.Symbol][]domain.OpenOrder
	listErr    error
}

func (f *fakeExecutor) PlaceLimitSell(_ context.Context, symbol domain.Symbol, quantity, limitPrice decimal.Decimal, _ string) (string, error) {
	if f.sellErr != nil {
		return "", f.sellErr
	}
	f.sells = append(f.sells, sellCall{symbol: symbol, quantity: quantity, limit: limitPrice})
	return "order-" + string(symbol), nil
}

func (f *fakeExecutor) ListOpenOrders(_ context.Context, symbol domain.Symbol) ([]domain.OpenOrder, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.openOrders[symbol], nil
}

func newTestLedger(t *testing.T, threshold decimal.Decimal) *ledger.Ledger {
	t.Helper()
	store, err := settings.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := ledger.New(zap.NewNop(), store, threshold)
	require.NoError(t, err)
	return l
}

func revalue(l *ledger.Ledger, prices map[domain.Symbol]float64) domain.MarketSnapshot {
	partial := make(map[domain.Symbol]decimal.Decimal, len(prices))
	for sym, p := range prices {
		partial[sym] = decimal.NewFromFloat(p)
	}
	snap := domain.NewMarketSnapshot().Merge(partial, time.Now())
	l.Revalue(snap)
	return snap
}

func TestScanPlacesSingleSellAtDiscountedPrice(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	executor := &fakeExecutor{}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	// 106 -> 6% profit, above the 5% threshold
	snap := revalue(l, map[domain.Symbol]float64{"SOL": 106})
	e.Scan(context.Background(), snap)

	require.Len(t, executor.sells, 1)
	require.True(t, executor.sells[0].quantity.Equal(decimal.NewFromInt(10)))

	// 106 * 0.999 = 105.894
	require.True(t, executor.sells[0].limit.Equal(decimal.NewFromFloat(105.894)),
		"expected limit 105.894, got %s", executor.sells[0].limit.String())

	p, _ := l.Position("SOL")
	require.True(t, p.SellOrderPlaced)
	require.Equal(t, "order-SOL", p.SellOrderID)

	// a further price rise must not produce a second sell
	snap = revalue(l, map[domain.Symbol]float64{"SOL": 110})
	e.Scan(context.Background(), snap)
	require.Len(t, executor.sells, 1, "sell must be placed at most once per position")
}

func TestScanBelowThresholdDoesNothing(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	executor := &fakeExecutor{}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	snap := revalue(l, map[domain.Symbol]float64{"SOL": 104})
	e.Scan(context.Background(), snap)

	require.Empty(t, executor.sells)
}

func TestScanRetriesAfterPlacementFailure(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	executor := &fakeExecutor{sellErr: errors.New("exchange rejected")}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	snap := revalue(l, map[domain.Symbol]float64{"SOL": 106})
	e.Scan(context.Background(), snap)

	p, _ := l.Position("SOL")
	require.False(t, p.SellOrderPlaced, "failed placement must leave the position eligible for retry")

	executor.sellErr = nil
	e.Scan(context.Background(), snap)
	require.Len(t, executor.sells, 1)
}

func TestScanSkipsUnpricedSymbols(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))

	executor := &fakeExecutor{}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	// revalue against one snapshot, scan against one missing the symbol
	revalue(l, map[domain.Symbol]float64{"SOL": 106})
	e.Scan(context.Background(), domain.NewMarketSnapshot())

	require.Empty(t, executor.sells)
}

func TestReconcileClearsFilledOrders(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))
	require.NoError(t, l.MarkSellPlaced("SOL", "order-SOL"))

	log := domain.NewActionLog(50)
	executor := &fakeExecutor{openOrders: map[domain.Symbol][]domain.OpenOrder{}}
	e := NewEngine(zap.NewNop(), executor, l, log)

	e.Reconcile(context.Background())

	p, _ := l.Position("SOL")
	require.False(t, p.IsOpen(), "vanished sell order must clear the position")

	entries := log.Entries()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Message, "ambiguous")
}

func TestReconcileKeepsPendingOrders(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))
	require.NoError(t, l.MarkSellPlaced("SOL", "order-SOL"))

	executor := &fakeExecutor{openOrders: map[domain.Symbol][]domain.OpenOrder{
		"SOL": {{OrderID: "order-SOL", Status: "open"}},
	}}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	e.Reconcile(context.Background())

	p, _ := l.Position("SOL")
	require.True(t, p.IsOpen(), "an order still open must not clear the position")
	require.True(t, p.SellOrderPlaced)
}

func TestReconcileListingFailureIsUnknownOutcome(t *testing.T) {
	l := newTestLedger(t, decimal.NewFromInt(5))
	require.NoError(t, l.RecordFill("SOL", decimal.NewFromInt(10), decimal.NewFromInt(100), time.Now()))
	require.NoError(t, l.MarkSellPlaced("SOL", "order-SOL"))

	executor := &fakeExecutor{listErr: errors.New("timeout")}
	e := NewEngine(zap.NewNop(), executor, l, domain.NewActionLog(50))

	e.Reconcile(context.Background())

	p, _ := l.Position("SOL")
	require.True(t, p.IsOpen(), "listing failure must not be treated as a fill")
}
