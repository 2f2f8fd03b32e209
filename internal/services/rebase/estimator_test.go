package rebase

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

type fakeSeller struct {
	calls []decimal.Decimal
	err   error
}

func (f *fakeSeller) PlaceMarketSell(_ context.Context, _ domain.Symbol, quantity decimal.Decimal, _ string) (domain.OrderResult, error) {
	f.calls = append(f.calls, quantity)
	if f.err != nil {
		return domain.OrderResult{}, f.err
	}
	return domain.OrderResult{OrderID: "sell-1", FilledQuantity: quantity}, nil
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	store, err := settings.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l, err := ledger.New(zap.NewNop(), store, decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	return l
}

func TestEvaluate(t *testing.T) {
	e := NewEstimator(zap.NewNop(), "AMPL", nil, nil, domain.NewActionLog(10), true)

	state := e.Evaluate(decimal.NewFromFloat(1.04))
	require.True(t, state.Deviation.Equal(decimal.NewFromFloat(0.04)))
	require.Equal(t, int64(75), state.ProtectionStatus)
	require.True(t, state.ProtectionActive)
}

func TestShouldSkipPrimaryBuy(t *testing.T) {
	e := NewEstimator(zap.NewNop(), "AMPL", nil, nil, domain.NewActionLog(10), false)

	require.False(t, e.ShouldSkipPrimaryBuy(decimal.NewFromFloat(0.90)), "below peg never skips")
	require.False(t, e.ShouldSkipPrimaryBuy(decimal.NewFromFloat(1.03)), "mild upside does not skip")
	require.True(t, e.ShouldSkipPrimaryBuy(decimal.NewFromFloat(1.08)), "strong upside skips the buy")
}

func TestCheckEmergencyLiquidates(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.RecordFill("AMPL", decimal.NewFromInt(100), decimal.NewFromFloat(1.10), time.Now()))

	seller := &fakeSeller{}
	e := NewEstimator(zap.NewNop(), "AMPL", seller, l, domain.NewActionLog(10), true)

	// 0.85 is >10% below peg
	require.NoError(t, e.CheckEmergency(context.Background(), decimal.NewFromFloat(0.85)))

	require.Len(t, seller.calls, 1)
	require.True(t, seller.calls[0].Equal(decimal.NewFromInt(100)))

	p, _ := l.Position("AMPL")
	require.False(t, p.IsOpen(), "position must be cleared after liquidation")
}

func TestCheckEmergencyRequiresConditions(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.RecordFill("AMPL", decimal.NewFromInt(100), decimal.NewFromFloat(1.10), time.Now()))

	seller := &fakeSeller{}
	ctx := context.Background()

	// protection disabled
	off := NewEstimator(zap.NewNop(), "AMPL", seller, l, domain.NewActionLog(10), false)
	require.NoError(t, off.CheckEmergency(ctx, decimal.NewFromFloat(0.85)))
	require.Empty(t, seller.calls)

	on := NewEstimator(zap.NewNop(), "AMPL", seller, l, domain.NewActionLog(10), true)

	// above peg, even with a large deviation
	require.NoError(t, on.CheckEmergency(ctx, decimal.NewFromFloat(1.20)))
	require.Empty(t, seller.calls)

	// below peg but within the 10% band
	require.NoError(t, on.CheckEmergency(ctx, decimal.NewFromFloat(0.92)))
	require.Empty(t, seller.calls)
}

func TestCheckEmergencySellFailureKeepsPosition(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.RecordFill("AMPL", decimal.NewFromInt(100), decimal.NewFromFloat(1.10), time.Now()))

	seller := &fakeSeller{err: errors.New("exchange down")}
	e := NewEstimator(zap.NewNop(), "AMPL", seller, l, domain.NewActionLog(10), true)

	require.Error(t, e.CheckEmergency(context.Background(), decimal.NewFromFloat(0.85)))

	p, _ := l.Position("AMPL")
	require.True(t, p.IsOpen(), "failed liquidation must not clear the position")
}
