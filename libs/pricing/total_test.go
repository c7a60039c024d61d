package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
)

func date(t *testing.T, s string) dates.Date {
	t.Helper()
	d, err := dates.Parse(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// Golden scenario, hand-computed: flat site fee 3500, no service rate, no
// rental tax, no catering add-on, 120 guests (planner fee 1750). Pre-margin
// 5250 selects the 5000-8999 margin band (3000); 8250 * 1.086 = 8959.50;
// card gross-up brings the grand total to 9227.39.
func TestTotalGoldenFlatVenue(t *testing.T) {
	got, err := Total(catalog.Default(), "saguaro-hills", 120, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got != 9227.39 {
		t.Fatalf("golden total = %.2f, want 9227.39", got)
	}

	// 80 guests drops to the small planner fee (1500): pre-margin 5000,
	// same margin band.
	got, err = Total(catalog.Default(), "saguaro-hills", 80, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got != 8947.79 {
		t.Fatalf("total = %.2f, want 8947.79", got)
	}
}

// Tiered venue with service charge and rental tax: 120 guests on a
// non-summer Saturday. Site fee 6800 (150 tier); service 250 + 20%;
// rental tax 2.5% of site fee only; planner 1750; margin 3200.
func TestTotalTieredVenueWithFees(t *testing.T) {
	got, err := Total(catalog.Default(), "ocotillo-gardens", 120, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got != 15132.73 {
		t.Fatalf("total = %.2f, want 15132.73", got)
	}
}

// Friday discount and guest overage stack before the percentage fees:
// 160 guests clamps to the 150 tier (6800), minus the 500 Friday discount,
// plus 10 x 28 overage.
func TestTotalDiscountAndOverage(t *testing.T) {
	got, err := Total(catalog.Default(), "ocotillo-gardens", 160, date(t, "2026-10-09"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got != 15110.92 {
		t.Fatalf("total = %.2f, want 15110.92", got)
	}
}

func TestTotalSummerOnlyDiscountGate(t *testing.T) {
	reg := catalog.Default()
	// copper-canyon-ranch: 750 off Saturdays, summer only (May-Sep).
	june, err := Total(reg, "copper-canyon-ranch", 100, date(t, "2026-06-13"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	october, err := Total(reg, "copper-canyon-ranch", 100, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if june >= october {
		t.Fatalf("summer Saturday (%.2f) should be cheaper than off-season (%.2f)", june, october)
	}
}

func TestTotalNoAlcoholCredit(t *testing.T) {
	reg := catalog.Default()
	with, err := Total(reg, "sunset-mesa", 100, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	without, err := Total(reg, "sunset-mesa", 100, date(t, "2026-10-10"), Options{NoAlcohol: true})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if with != 10625.44 || without != 8388.57 {
		t.Fatalf("totals = %.2f / %.2f, want 10625.44 / 8388.57", with, without)
	}

	// Venues without the credit ignore the flag.
	a, _ := Total(reg, "saguaro-hills", 100, date(t, "2026-10-10"), Options{})
	b, _ := Total(reg, "saguaro-hills", 100, date(t, "2026-10-10"), Options{NoAlcohol: true})
	if a != b {
		t.Fatalf("no-alcohol flag changed a venue without the credit: %.2f vs %.2f", a, b)
	}
}

func TestTotalUnknownVenue(t *testing.T) {
	_, err := Total(catalog.Default(), "chapel-of-nowhere", 100, date(t, "2026-10-10"), Options{})
	if !errors.Is(err, catalog.ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestTotalZeroGuestsPermitted(t *testing.T) {
	got, err := Total(catalog.Default(), "ocotillo-gardens", 0, date(t, "2026-10-10"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if got <= 0 {
		t.Fatalf("zero guests should still price the floor tier, got %.2f", got)
	}
}

func TestTotalMonotonicInGuestCount(t *testing.T) {
	reg := catalog.Default()
	d := date(t, "2026-10-10")
	prev := 0.0
	for guests := 0; guests <= 250; guests += 5 {
		got, err := Total(reg, "ocotillo-gardens", guests, d, Options{})
		if err != nil {
			t.Fatalf("Total(%d) failed: %v", guests, err)
		}
		if got < prev {
			t.Fatalf("total decreased at %d guests: %.2f < %.2f", guests, got, prev)
		}
		prev = got
	}
}

func TestTotalIdempotent(t *testing.T) {
	d := date(t, "2026-04-18")
	a, err := Total(catalog.Default(), "verde-river-lodge", 140, d, Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	b, err := Total(catalog.Default(), "verde-river-lodge", 140, d, Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if a != b {
		t.Fatalf("same inputs produced %.2f then %.2f", a, b)
	}
}

func TestTotalRoundsToCents(t *testing.T) {
	got, err := Total(catalog.Default(), "ironwood-hall", 137, date(t, "2026-10-11"), Options{})
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if math.Abs(got*100-math.Round(got*100)) > 1e-9 {
		t.Fatalf("total %.10f is not cent-aligned", got)
	}
}
