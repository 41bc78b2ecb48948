package pricing

import "math"

// PercentDiscount returns how far now sits below base, in percent.
// Returns 0 for a non-positive base and never goes negative.
func PercentDiscount(base, now float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Max(0, (base-now)/base*100)
}

// RoundToStep rounds x to the nearest multiple of step.
// A non-positive step leaves x untouched.
func RoundToStep(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	return math.Round(x/step) * step
}

// SellRule derives a resale price from an observed purchase price.
type SellRule struct {
	Markup float64
	Add    float64
	Step   float64
}

// Price applies the markup and rounding of the rule
func (r SellRule) Price(lastPrice float64) float64 {
	return RoundToStep(lastPrice*r.Markup+r.Add, r.Step)
}
