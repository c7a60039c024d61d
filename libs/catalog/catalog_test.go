package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/saguaro-events/venuebook/libs/dates"
)

func TestDefaultRegistryValidates(t *testing.T) {
	reg := Default()
	if len(reg.All()) == 0 {
		t.Fatal("catalog is empty")
	}
}

func TestGetUnknownVenue(t *testing.T) {
	_, err := Default().Get("chapel-of-nowhere")
	if !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestCeilingTierLookup(t *testing.T) {
	v := Venue{Pricing: PricingModel{TieredByGuests: []GuestTier{
		{MaxGuests: 50, Price: 1000},
		{MaxGuests: 100, Price: 2000},
		{MaxGuests: 150, Price: 3000},
	}}}

	cases := []struct {
		guests    int
		wantMax   int
		wantPrice float64
	}{
		{37, 50, 1000},
		{50, 50, 1000},
		{51, 100, 2000},
		{151, 150, 3000}, // no tier above the max: clamps to largest
		{0, 50, 1000},
	}
	for _, tc := range cases {
		tier, ok := v.TierFor(tc.guests)
		if !ok {
			t.Fatalf("TierFor(%d): no tier", tc.guests)
		}
		if tier.MaxGuests != tc.wantMax || tier.Price != tc.wantPrice {
			t.Fatalf("TierFor(%d) = {%d, %.0f}, want {%d, %.0f}",
				tc.guests, tier.MaxGuests, tier.Price, tc.wantMax, tc.wantPrice)
		}
	}
}

func TestIsGuestTiered(t *testing.T) {
	flat := 100.0
	if (&Venue{Pricing: PricingModel{Flat: &flat}}).IsGuestTiered() {
		t.Fatal("flat venue reported as guest tiered")
	}
	tiered := &Venue{Pricing: PricingModel{TieredByGuests: []GuestTier{{MaxGuests: 10, Price: 1}}}}
	if !tiered.IsGuestTiered() {
		t.Fatal("tiered venue not reported as guest tiered")
	}
	byDay := &Venue{Pricing: PricingModel{TieredByGuestDay: []GuestDayTier{{MaxGuests: 10}}}}
	if !byDay.IsGuestTiered() {
		t.Fatal("guest/day venue not reported as guest tiered")
	}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		day  time.Weekday
		want DayBand
	}{
		{time.Saturday, BandSaturday},
		{time.Friday, BandFriSun},
		{time.Sunday, BandFriSun},
		{time.Monday, BandWeekday},
		{time.Thursday, BandWeekday},
	}
	for _, tc := range cases {
		if got := BandFor(tc.day); got != tc.want {
			t.Fatalf("BandFor(%s) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestSiteFeeDispatch(t *testing.T) {
	reg := Default()

	sat, err := dates.Parse("2026-10-10")
	if err != nil {
		t.Fatal(err)
	}
	mon := sat.AddDays(2)

	v, err := reg.Get("copper-canyon-ranch")
	if err != nil {
		t.Fatal(err)
	}
	if got := v.SiteFee(100, sat); got != 7500 {
		t.Fatalf("weekday table Saturday = %.0f, want 7500", got)
	}
	if got := v.SiteFee(100, mon); got != 4500 {
		t.Fatalf("weekday table Monday = %.0f, want 4500", got)
	}

	v, err = reg.Get("verde-river-lodge")
	if err != nil {
		t.Fatal(err)
	}
	if got := v.SiteFee(80, sat); got != 8800 {
		t.Fatalf("guest/day Saturday tier 100 = %.0f, want 8800", got)
	}
	if got := v.SiteFee(150, sat.AddDays(1)); got != 9400 {
		t.Fatalf("guest/day Sunday tier 200 = %.0f, want 9400", got)
	}
	if got := v.SiteFee(500, mon); got != 7600 {
		t.Fatalf("guest/day overflow clamps to largest tier, got %.0f", got)
	}
}

func TestMarginForFallsBackToLastTier(t *testing.T) {
	v := Venue{MarginTiers: []MarginTier{
		{Min: 0, Max: 999, Margin: 100},
		{Min: 1000, Max: 1999, Margin: 200},
	}}
	if got := v.MarginFor(500); got != 100 {
		t.Fatalf("expected 100, got %.0f", got)
	}
	if got := v.MarginFor(5000); got != 200 {
		t.Fatalf("expected catch-all 200, got %.0f", got)
	}
}

func TestIsClosedOn(t *testing.T) {
	reg := Default()
	v, err := reg.Get("palo-verde-estate")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsClosedOn(time.Monday) || !v.IsClosedOn(time.Tuesday) {
		t.Fatal("expected closed Monday and Tuesday")
	}
	if !v.IsClosedOn(time.Sunday) {
		t.Fatal("venue without Sunday booking should be closed Sunday")
	}
	if v.IsClosedOn(time.Saturday) {
		t.Fatal("Saturday should be open")
	}
}

func TestRegistryRejectsMalformedVenues(t *testing.T) {
	flat := 100.0
	cases := []struct {
		name  string
		venue Venue
	}{
		{"no pricing model", Venue{ID: "x", MarginTiers: []MarginTier{{Max: 1, Margin: 1}}, Deposit: 1}},
		{"two pricing models", Venue{
			ID:          "x",
			Pricing:     PricingModel{Flat: &flat, TieredByGuests: []GuestTier{{MaxGuests: 1, Price: 1}}},
			MarginTiers: []MarginTier{{Max: 1, Margin: 1}},
			Deposit:     1,
		}},
		{"no margin tiers", Venue{ID: "x", Pricing: PricingModel{Flat: &flat}, Deposit: 1}},
		{"no deposit rule", Venue{ID: "x", Pricing: PricingModel{Flat: &flat}, MarginTiers: []MarginTier{{Max: 1, Margin: 1}}}},
		{"unsorted tiers", Venue{
			ID: "x",
			Pricing: PricingModel{TieredByGuests: []GuestTier{
				{MaxGuests: 100, Price: 2},
				{MaxGuests: 50, Price: 1},
			}},
			MarginTiers: []MarginTier{{Max: 1, Margin: 1}},
			Deposit:     1,
		}},
	}
	for _, tc := range cases {
		if _, err := NewRegistry([]Venue{tc.venue}); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
