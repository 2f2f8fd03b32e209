// Package indicators computes trend context (EMA, RSI) over an observed
// price series. The engine feeds it the primary token price each tick and
// the dashboard shows the result; no trading decision depends on it.
package indicators

import (
	"fmt"
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

const (
	defaultHistory = 500
	emaPeriod      = 20
	rsiPeriod      = 14
)

// Trend is the latest computed indicator values for a price series.
type Trend struct {
	EMA20     decimal.Decimal `json:"ema20"`
	RSI14     decimal.Decimal `json:"rsi14"`
	Direction string          `json:"direction"` // "up", "down" or "flat"
	Samples   int             `json:"samples"`
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	outputChan := ema.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	outputChan := rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// Tracker accumulates a bounded price history and derives trend context from
// it. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	closes   []decimal.Decimal
}

// NewTracker creates a tracker bounded to the given history length.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = defaultHistory
	}
	return &Tracker{capacity: capacity}
}

// Observe appends a price sample, dropping the oldest when full. Non-positive
// prices are ignored.
func (t *Tracker) Observe(price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.closes = append(t.closes, price)
	if len(t.closes) > t.capacity {
		t.closes = t.closes[len(t.closes)-t.capacity:]
	}
}

// Trend returns the latest indicator values, or ok=false until enough
// samples have accumulated for both indicators.
func (t *Tracker) Trend() (Trend, bool) {
	t.mu.Lock()
	closes := make([]decimal.Decimal, len(t.closes))
	copy(closes, t.closes)
	t.mu.Unlock()

	emaSeries, err := CalculateEMA(closes, emaPeriod)
	if err != nil {
		return Trend{Samples: len(closes)}, false
	}
	rsiSeries, err := CalculateRSI(closes, rsiPeriod)
	if err != nil {
		return Trend{Samples: len(closes)}, false
	}
	if len(emaSeries) == 0 || len(rsiSeries) == 0 {
		return Trend{Samples: len(closes)}, false
	}

	ema := emaSeries[len(emaSeries)-1]
	direction := "flat"
	switch latest := closes[len(closes)-1]; {
	case latest.GreaterThan(ema):
		direction = "up"
	case latest.LessThan(ema):
		direction = "down"
	}

	return Trend{
		EMA20:     ema,
		RSI14:     rsiSeries[len(rsiSeries)-1],
		Direction: direction,
		Samples:   len(closes),
	}, true
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
