package domain

import "github.com/shopspring/decimal"

// PegPrice is the target price of the rebasing token.
var PegPrice = decimal.NewFromInt(1)

// protection breakpoints as fractions of the peg deviation
var (
	deviationSafe    = decimal.NewFromFloat(0.02)
	deviationCaution = decimal.NewFromFloat(0.05)
	deviationRisk    = decimal.NewFromFloat(0.10)
	deviationSevere  = decimal.NewFromFloat(0.15)
)

// RebaseRiskState captures how far the rebasing token has drifted from its
// peg and the resulting protection score.
type RebaseRiskState struct {
	TargetPrice      decimal.Decimal `json:"target_price"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	Deviation        decimal.Decimal `json:"deviation"`
	ProtectionStatus int64           `json:"protection_status"`
	ProtectionActive bool            `json:"protection_active"`
}

// PegDeviation returns |price - target| / target.
func PegDeviation(price, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(target).Abs().Div(target)
}

// ProtectionStatus maps a peg deviation to a 0-100 score. The breakpoints are
// a fixed step function, deliberately not interpolated:
//
//	<= 2%  -> 100
//	<= 5%  -> 75
//	<= 10% -> 50
//	<= 15% -> 25
//	>  15% -> 0
func ProtectionStatus(deviation decimal.Decimal) int64 {
	switch {
	case deviation.LessThanOrEqual(deviationSafe):
		return 100
	case deviation.LessThanOrEqual(deviationCaution):
		return 75
	case deviation.LessThanOrEqual(deviationRisk):
		return 50
	case deviation.LessThanOrEqual(deviationSevere):
		return 25
	default:
		return 0
	}
}

// ProtectionLabel renders a status score as an operator-facing label.
func ProtectionLabel(status int64) string {
	switch {
	case status >= 75:
		return "Safe"
	case status >= 50:
		return "Caution"
	default:
		return "Risk"
	}
}
