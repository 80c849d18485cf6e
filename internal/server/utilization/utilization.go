// Package utilization does the credit utilization arithmetic used by
// statement alerts.
package utilization

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns balance/limit*100. ok is false when limit is not positive.
func Percent(balance, limit decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if !limit.IsPositive() {
		return decimal.Zero, false
	}
	return balance.Div(limit).Mul(hundred), true
}

// Exceeds reports whether pct is strictly above threshold.
func Exceeds(pct, threshold decimal.Decimal) bool {
	return pct.GreaterThan(threshold)
}

// Format renders a percentage with at most one decimal place and no
// trailing zeros ("10", "33.3").
func Format(pct decimal.Decimal) string {
	return pct.Round(1).String()
}
