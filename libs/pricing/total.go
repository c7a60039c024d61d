// Package pricing computes venue grand totals and deposits from the catalog
// cost structures. Every function is pure: same inputs, same cents.
package pricing

import (
	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
)

// Options carry per-booking toggles that adjust the site fee.
type Options struct {
	// NoAlcohol applies the venue's per-guest no-alcohol credit, for venues
	// that offer one.
	NoAlcohol bool
}

// Total computes the grand total a couple pays for a venue, guest count, and
// wedding date. The stage order is load-bearing: the rental tax bases on the
// site fee only, the sales tax bases on the post-margin subtotal, and the
// card fee grosses up the final amount.
func Total(reg *catalog.Registry, venueID string, guests int, date dates.Date, opts Options) (float64, error) {
	v, err := reg.Get(venueID)
	if err != nil {
		return 0, err
	}

	day := date.Weekday()
	summer := v.IsSummerMonth(date.Month)

	siteFee := v.SiteFee(guests, date)

	// Day-of-week discounts, floored at zero.
	for _, rule := range v.DiscountRules {
		if rule.Day != day {
			continue
		}
		if rule.SummerOnly && !summer {
			continue
		}
		siteFee -= rule.Amount
	}
	if siteFee < 0 {
		siteFee = 0
	}

	// Per-guest overage beyond the soft cap.
	if v.GuestCap > 0 && guests > v.GuestCap {
		siteFee += float64(guests-v.GuestCap) * v.OveragePerGuest
	}

	// Venue-configured no-alcohol credit.
	if opts.NoAlcohol && v.NoAlcoholPerGuestCredit > 0 {
		siteFee -= v.NoAlcoholPerGuestCredit * float64(guests)
		if siteFee < 0 {
			siteFee = 0
		}
	}

	// Site-only service charge: base is the site fee after discounts,
	// overage, and credits.
	siteService := v.ServiceFee + v.SiteServiceRate*siteFee

	cateringAddOn := v.CateringAddOn

	// Rental tax applies to the site fee only — not the catering add-on,
	// not the service charge.
	venueRentalTax := v.RentalTaxRate * siteFee

	plannerFee := PlannerFee(guests)

	preMargin := siteFee + siteService + cateringAddOn + venueRentalTax + plannerFee
	withMargin := preMargin + v.MarginFor(preMargin)

	afterTax := withMargin * (1 + SalesTaxRate)

	total := afterTax + CardFeeGrossUp(afterTax, CardFeeRate, CardFeeFixed)

	return Round2(total), nil
}
