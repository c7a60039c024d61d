// Package catalog holds the venue cost-structure table: per-venue site-fee
// pricing models, discount rules, margin tiers, deposit rules, and
// operational flags. The table is read-only configuration, loaded once into
// an immutable Registry at startup.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/saguaro-events/venuebook/libs/dates"
)

var ErrUnknownVenue = errors.New("unknown venue")

// DayBand buckets weekdays for venues that price by demand band rather than
// by individual weekday.
type DayBand string

const (
	BandSaturday DayBand = "saturday"
	BandFriSun   DayBand = "fri_sun"
	BandWeekday  DayBand = "weekday"
)

// BandFor maps a weekday to its pricing band: Saturday stands alone, Friday
// and Sunday share a band, Monday through Thursday are "weekday".
func BandFor(day time.Weekday) DayBand {
	switch day {
	case time.Saturday:
		return BandSaturday
	case time.Friday, time.Sunday:
		return BandFriSun
	default:
		return BandWeekday
	}
}

// GuestTier is one breakpoint of a guest-count tier table. A tier applies to
// any guest count up to and including MaxGuests.
type GuestTier struct {
	MaxGuests int
	Price     float64
}

// GuestDayTier prices a guest-count breakpoint per day band.
type GuestDayTier struct {
	MaxGuests  int
	PriceByDay map[DayBand]float64
}

// PricingModel is the tagged union of the four site-fee shapes a venue can
// carry. Exactly one of the fields is set; Venue.validate enforces it and
// SiteFee dispatches over it.
type PricingModel struct {
	Flat             *float64
	TieredByGuests   []GuestTier
	Weekday          map[time.Weekday]float64
	TieredByGuestDay []GuestDayTier
}

// DiscountRule subtracts a flat amount from the site fee when the wedding
// falls on Day. SummerOnly rules additionally require the month to be in the
// venue's SummerMonths list.
type DiscountRule struct {
	Day        time.Weekday
	Amount     float64
	SummerOnly bool
}

// MarginTier selects the platform's flat markup by the pre-margin subtotal
// band [Min, Max]. The last tier acts as the catch-all.
type MarginTier struct {
	Min    float64
	Max    float64
	Margin float64
}

// DepositFormula computes a deposit from a food-and-beverage requirement
// instead of a flat amount. Friday weddings are held to FridayFoodAndBevMin
// when the per-guest requirement falls short of it.
type DepositFormula struct {
	BaseSiteFee         float64
	FridayFoodAndBevMin float64
	PerGuestFoodAndBev  float64
	DepositPercent      float64
}

// Venue is one row of the cost-structure table.
type Venue struct {
	ID          string
	DisplayName string

	// Catering. A venue either uses the house caterer or names its own;
	// outside caterers carry a flat add-on.
	UsesHouseCaterer bool
	CustomCaterer    string
	CateringAddOn    float64

	// Capacity. GuestCap is a soft cap: guests beyond it bill at
	// OveragePerGuest on top of the site fee.
	MaxCapacity     int
	GuestCap        int
	OveragePerGuest float64

	// Fee composition inputs. ServiceFee is flat; SiteServiceRate and
	// RentalTaxRate are percentages applied to the site fee only.
	ServiceFee      float64
	SiteServiceRate float64
	RentalTaxRate   float64

	Pricing       PricingModel
	DiscountRules []DiscountRule
	SummerMonths  []time.Month

	// NoAlcoholPerGuestCredit is subtracted per guest when the couple
	// declines alcohol service. Zero for venues that have not opted in.
	NoAlcoholPerGuestCredit float64

	MarginTiers []MarginTier

	// Deposit: flat amount unless DepositCalculation is set.
	Deposit            float64
	DepositCalculation *DepositFormula

	// Operational flags.
	AllowsSundayBooking  bool
	AllowsPartnerCaterer bool
	ClosedWeekdays       []time.Weekday

	// Presentation-only bullet lists surfaced by the venue detail screens.
	SpaceByTier           []string
	IncludedStripPatterns []string
}

// IsGuestTiered reports whether the venue prices by guest-count breakpoints
// (either the plain or the per-day-band tier table).
func (v *Venue) IsGuestTiered() bool {
	return len(v.Pricing.TieredByGuests) > 0 || len(v.Pricing.TieredByGuestDay) > 0
}

// TierFor is the ceiling lookup over the plain guest-tier table: the
// smallest breakpoint that admits the guest count, falling back to the
// largest breakpoint when the count exceeds them all. This is the only
// sanctioned way to read tiered pricing.
func (v *Venue) TierFor(guests int) (GuestTier, bool) {
	return ceilingTier(v.Pricing.TieredByGuests, guests)
}

func ceilingTier(tiers []GuestTier, guests int) (GuestTier, bool) {
	if len(tiers) == 0 {
		return GuestTier{}, false
	}
	for _, t := range tiers {
		if guests <= t.MaxGuests {
			return t, true
		}
	}
	return tiers[len(tiers)-1], true
}

func ceilingGuestDayTier(tiers []GuestDayTier, guests int) (GuestDayTier, bool) {
	if len(tiers) == 0 {
		return GuestDayTier{}, false
	}
	for _, t := range tiers {
		if guests <= t.MaxGuests {
			return t, true
		}
	}
	return tiers[len(tiers)-1], true
}

// SiteFee resolves the base site fee for a guest count and wedding date by
// dispatching over the venue's pricing model.
func (v *Venue) SiteFee(guests int, date dates.Date) float64 {
	switch {
	case v.Pricing.Flat != nil:
		return *v.Pricing.Flat
	case len(v.Pricing.TieredByGuests) > 0:
		t, _ := ceilingTier(v.Pricing.TieredByGuests, guests)
		return t.Price
	case len(v.Pricing.Weekday) > 0:
		return v.Pricing.Weekday[date.Weekday()]
	default:
		t, _ := ceilingGuestDayTier(v.Pricing.TieredByGuestDay, guests)
		return t.PriceByDay[BandFor(date.Weekday())]
	}
}

// IsSummerMonth reports whether the month falls in the venue's summer list.
func (v *Venue) IsSummerMonth(m time.Month) bool {
	for _, sm := range v.SummerMonths {
		if sm == m {
			return true
		}
	}
	return false
}

// MarginFor returns the flat platform margin for a pre-margin subtotal. The
// last tier is the catch-all when no band contains the subtotal.
func (v *Venue) MarginFor(preMargin float64) float64 {
	for _, t := range v.MarginTiers {
		if preMargin >= t.Min && preMargin <= t.Max {
			return t.Margin
		}
	}
	return v.MarginTiers[len(v.MarginTiers)-1].Margin
}

// IsClosedOn reports whether the venue does not operate on the weekday.
func (v *Venue) IsClosedOn(day time.Weekday) bool {
	if day == time.Sunday && !v.AllowsSundayBooking {
		return true
	}
	for _, d := range v.ClosedWeekdays {
		if d == day {
			return true
		}
	}
	return false
}

func (v *Venue) validate() error {
	if v.ID == "" {
		return errors.New("venue id is empty")
	}
	models := 0
	if v.Pricing.Flat != nil {
		models++
	}
	if len(v.Pricing.TieredByGuests) > 0 {
		models++
	}
	if len(v.Pricing.Weekday) > 0 {
		models++
	}
	if len(v.Pricing.TieredByGuestDay) > 0 {
		models++
	}
	if models != 1 {
		return fmt.Errorf("venue %s: exactly one pricing model required, got %d", v.ID, models)
	}
	if !sort.SliceIsSorted(v.Pricing.TieredByGuests, func(i, j int) bool {
		return v.Pricing.TieredByGuests[i].MaxGuests < v.Pricing.TieredByGuests[j].MaxGuests
	}) {
		return fmt.Errorf("venue %s: guest tiers not sorted by max guests", v.ID)
	}
	if !sort.SliceIsSorted(v.Pricing.TieredByGuestDay, func(i, j int) bool {
		return v.Pricing.TieredByGuestDay[i].MaxGuests < v.Pricing.TieredByGuestDay[j].MaxGuests
	}) {
		return fmt.Errorf("venue %s: guest/day tiers not sorted by max guests", v.ID)
	}
	if len(v.MarginTiers) == 0 {
		return fmt.Errorf("venue %s: margin tiers are required", v.ID)
	}
	if v.DepositCalculation == nil && v.Deposit <= 0 {
		return fmt.Errorf("venue %s: deposit rule is required", v.ID)
	}
	if v.DepositCalculation != nil && v.DepositCalculation.DepositPercent <= 0 {
		return fmt.Errorf("venue %s: deposit percent must be positive", v.ID)
	}
	return nil
}

// Registry is the immutable venue lookup. Build it once at startup; a
// malformed catalog entry is a data bug and fails construction loudly.
type Registry struct {
	byID  map[string]*Venue
	order []string
}

func NewRegistry(venues []Venue) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Venue, len(venues))}
	for i := range venues {
		v := venues[i]
		if err := v.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[v.ID]; dup {
			return nil, fmt.Errorf("venue %s: duplicate id", v.ID)
		}
		r.byID[v.ID] = &v
		r.order = append(r.order, v.ID)
	}
	return r, nil
}

// Get returns the venue for a slug, or ErrUnknownVenue. An unknown slug is
// a programming error on the caller's side, never a silent zero.
func (r *Registry) Get(venueID string) (*Venue, error) {
	v, ok := r.byID[venueID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, venueID)
	}
	return v, nil
}

// All returns the venues in catalog order.
func (r *Registry) All() []*Venue {
	out := make([]*Venue, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
