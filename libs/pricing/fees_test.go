package pricing

import (
	"math"
	"testing"
)

func TestPlannerFeeTiers(t *testing.T) {
	cases := []struct {
		guests int
		want   float64
	}{
		{0, 1500},
		{100, 1500},
		{101, 1750},
		{150, 1750},
		{151, 2000},
		{200, 2000},
		{500, 2000}, // top tier repeats, it is not unbounded
	}
	for _, tc := range cases {
		if got := PlannerFee(tc.guests); got != tc.want {
			t.Fatalf("PlannerFee(%d) = %.0f, want %.0f", tc.guests, got, tc.want)
		}
	}
}

// Inverse property: after the processor takes rate% plus the fixed fee from
// the grossed-up charge, the merchant nets the original amount.
func TestCardFeeGrossUpInverse(t *testing.T) {
	for _, amount := range []float64{0, 12.34, 1000, 8959.50, 25000} {
		fee := CardFeeGrossUp(amount, CardFeeRate, CardFeeFixed)
		net := (amount+fee)*(1-CardFeeRate) - CardFeeFixed
		if math.Abs(net-amount) > 1e-9 {
			t.Fatalf("amount %.2f: net %.10f after processor cut, want %.2f", amount, net, amount)
		}
	}
}

func TestRounding(t *testing.T) {
	if got := Round2(10.005); got != 10.01 && got != 10.0 {
		// 10.005 is not exactly representable; either neighbor is fine,
		// but nothing else is.
		t.Fatalf("Round2(10.005) = %v", got)
	}
	if got := Round2(123.4567); got != 123.46 {
		t.Fatalf("Round2 = %v, want 123.46", got)
	}
	if got := FloorCents(123.4599); got != 123.45 {
		t.Fatalf("FloorCents = %v, want 123.45", got)
	}
	if got := FloorCents(100.0); got != 100.0 {
		t.Fatalf("FloorCents(100) = %v", got)
	}
}
