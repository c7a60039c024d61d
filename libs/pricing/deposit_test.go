package pricing

import (
	"errors"
	"testing"

	"github.com/saguaro-events/venuebook/libs/catalog"
)

func TestDepositFlatVenue(t *testing.T) {
	got, err := Deposit(catalog.Default(), "ocotillo-gardens", 120, date(t, "2026-10-10"), 15132.73)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 2000 {
		t.Fatalf("deposit = %.2f, want 2000", got)
	}
}

func TestDepositClampedToTotal(t *testing.T) {
	got, err := Deposit(catalog.Default(), "ocotillo-gardens", 120, date(t, "2026-10-10"), 1500)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 1500 {
		t.Fatalf("deposit = %.2f, want clamp to 1500", got)
	}
}

func TestDepositNoTotalNoClamp(t *testing.T) {
	got, err := Deposit(catalog.Default(), "ocotillo-gardens", 120, date(t, "2026-10-10"), 0)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 2000 {
		t.Fatalf("deposit = %.2f, want 2000 when no total supplied", got)
	}
}

// verde-river-lodge is the catalog's one formula venue: 25% of base site fee
// plus the food-and-beverage requirement, with a 6000 Friday minimum.
func TestDepositFormulaVenue(t *testing.T) {
	reg := catalog.Default()

	// 100 guests: 85 * 100 = 8500 F&B, above the Friday minimum.
	got, err := Deposit(reg, "verde-river-lodge", 100, date(t, "2026-04-17"), 0)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 2750 {
		t.Fatalf("Friday deposit = %.2f, want 2750", got)
	}

	// 50 guests on a Friday: 4250 F&B lifts to the 6000 minimum.
	got, err = Deposit(reg, "verde-river-lodge", 50, date(t, "2026-04-17"), 0)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 2125 {
		t.Fatalf("Friday-minimum deposit = %.2f, want 2125", got)
	}

	// Same 50 guests on a Saturday: no minimum applies.
	got, err = Deposit(reg, "verde-river-lodge", 50, date(t, "2026-04-18"), 0)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if got != 1687.50 {
		t.Fatalf("Saturday deposit = %.2f, want 1687.50", got)
	}
}

func TestDepositUnknownVenue(t *testing.T) {
	_, err := Deposit(catalog.Default(), "chapel-of-nowhere", 10, date(t, "2026-10-10"), 0)
	if !errors.Is(err, catalog.ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}
