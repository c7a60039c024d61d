package pricing

import "math"

// General sales tax applied to the post-margin amount. Unlike the per-venue
// rental tax, its base includes the platform margin.
const SalesTaxRate = 0.086

// Published card-processing rate: percentage of the charged amount plus a
// fixed per-transaction fee.
const (
	CardFeeRate  = 0.029
	CardFeeFixed = 0.30
)

// Day-of coordination fee, tiered by guest count. The top tier repeats for
// any count above 200.
const (
	plannerFeeSmall  = 1500 // up to 100 guests
	plannerFeeMedium = 1750 // up to 150 guests
	plannerFeeLarge  = 2000 // 151 and up
)

// PlannerFee returns the tiered day-of coordination fee for a guest count.
func PlannerFee(guests int) float64 {
	switch {
	case guests <= 100:
		return plannerFeeSmall
	case guests <= 150:
		return plannerFeeMedium
	default:
		return plannerFeeLarge
	}
}

// CardFeeGrossUp computes the fee to add on top of amount so that after the
// processor deducts rate and fixed from the charge, the merchant still nets
// amount: fee = (amount + fixed) / (1 - rate) - amount.
func CardFeeGrossUp(amount, rate, fixed float64) float64 {
	return (amount+fixed)/(1-rate) - amount
}

// Round2 rounds to the nearest cent.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// FloorCents rounds down to the cent. Installment amounts floor so the
// remainder lands in the final installment instead of overcharging.
func FloorCents(x float64) float64 {
	return math.Floor(x*100) / 100
}

// Cents converts a dollar amount to integer cents for wire payloads and
// payment-provider APIs.
func Cents(x float64) int64 {
	return int64(math.Round(x * 100))
}
