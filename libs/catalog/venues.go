package catalog

import "time"

func flat(amount float64) PricingModel {
	return PricingModel{Flat: &amount}
}

// monsoonSummer is the off-peak window shared by most of the Arizona
// catalog; a few venues extend it on either side.
var monsoonSummer = []time.Month{time.June, time.July, time.August}

// venues is the production cost-structure table. Dollar figures come from
// the signed venue agreements; change them only alongside a contract
// amendment.
var venues = []Venue{
	{
		ID:               "saguaro-hills",
		DisplayName:      "Saguaro Hills Chapel",
		UsesHouseCaterer: true,
		MaxCapacity:      200,
		Pricing:          flat(3500),
		SummerMonths:     monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 4999, Margin: 2200},
			{Min: 5000, Max: 8999, Margin: 3000},
			{Min: 9000, Max: 1e9, Margin: 3800},
		},
		Deposit:              1000,
		AllowsSundayBooking:  true,
		AllowsPartnerCaterer: true,
		SpaceByTier: []string{
			"Chapel seating for up to 200",
			"Courtyard cocktail hour",
		},
	},
	{
		ID:               "ocotillo-gardens",
		DisplayName:      "Ocotillo Botanical Gardens",
		UsesHouseCaterer: true,
		MaxCapacity:      220,
		GuestCap:         150,
		OveragePerGuest:  28,
		ServiceFee:       250,
		SiteServiceRate:  0.20,
		RentalTaxRate:    0.025,
		Pricing: PricingModel{TieredByGuests: []GuestTier{
			{MaxGuests: 50, Price: 4200},
			{MaxGuests: 100, Price: 5400},
			{MaxGuests: 150, Price: 6800},
		}},
		DiscountRules: []DiscountRule{
			{Day: time.Friday, Amount: 500},
		},
		SummerMonths: monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 6999, Margin: 2400},
			{Min: 7000, Max: 10999, Margin: 3200},
			{Min: 11000, Max: 1e9, Margin: 4000},
		},
		Deposit:             2000,
		AllowsSundayBooking: true,
		IncludedStripPatterns: []string{
			"Market lighting over the great lawn",
			"Ceremony arch and 150 garden chairs",
		},
	},
	{
		ID:            "copper-canyon-ranch",
		DisplayName:   "Copper Canyon Ranch",
		CustomCaterer: "Mesquite & Sage Catering",
		CateringAddOn: 1200,
		MaxCapacity:   180,
		RentalTaxRate: 0.031,
		Pricing: PricingModel{Weekday: map[time.Weekday]float64{
			time.Saturday:  7500,
			time.Friday:    6500,
			time.Sunday:    6000,
			time.Monday:    4500,
			time.Tuesday:   4500,
			time.Wednesday: 4500,
			time.Thursday:  4500,
		}},
		DiscountRules: []DiscountRule{
			{Day: time.Saturday, Amount: 750, SummerOnly: true},
		},
		SummerMonths: []time.Month{time.May, time.June, time.July, time.August, time.September},
		MarginTiers: []MarginTier{
			{Min: 0, Max: 7999, Margin: 2600},
			{Min: 8000, Max: 11999, Margin: 3400},
			{Min: 12000, Max: 1e9, Margin: 4200},
		},
		Deposit:             2500,
		AllowsSundayBooking: true,
	},
	{
		ID:               "verde-river-lodge",
		DisplayName:      "Verde River Lodge",
		UsesHouseCaterer: true,
		MaxCapacity:      250,
		ServiceFee:       400,
		SiteServiceRate:  0.22,
		Pricing: PricingModel{TieredByGuestDay: []GuestDayTier{
			{MaxGuests: 100, PriceByDay: map[DayBand]float64{
				BandSaturday: 8800, BandFriSun: 7800, BandWeekday: 6200,
			}},
			{MaxGuests: 200, PriceByDay: map[DayBand]float64{
				BandSaturday: 10800, BandFriSun: 9400, BandWeekday: 7600,
			}},
		}},
		SummerMonths: monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 9999, Margin: 2800},
			{Min: 10000, Max: 14999, Margin: 3600},
			{Min: 15000, Max: 1e9, Margin: 4400},
		},
		DepositCalculation: &DepositFormula{
			BaseSiteFee:         2500,
			FridayFoodAndBevMin: 6000,
			PerGuestFoodAndBev:  85,
			DepositPercent:      0.25,
		},
		AllowsSundayBooking: true,
	},
	{
		ID:                      "sunset-mesa",
		DisplayName:             "Sunset Mesa Overlook",
		UsesHouseCaterer:        true,
		MaxCapacity:             160,
		NoAlcoholPerGuestCredit: 12,
		Pricing: PricingModel{TieredByGuests: []GuestTier{
			{MaxGuests: 50, Price: 3800},
			{MaxGuests: 100, Price: 4900},
			{MaxGuests: 150, Price: 5900},
		}},
		SummerMonths: monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 5999, Margin: 2300},
			{Min: 6000, Max: 9999, Margin: 3100},
			{Min: 10000, Max: 1e9, Margin: 3900},
		},
		Deposit:              1500,
		AllowsSundayBooking:  true,
		AllowsPartnerCaterer: true,
	},
	{
		ID:             "palo-verde-estate",
		DisplayName:    "Palo Verde Estate",
		CustomCaterer:  "Canyon Table Co.",
		CateringAddOn:  950,
		MaxCapacity:    140,
		RentalTaxRate:  0.031,
		Pricing:        flat(5200),
		SummerMonths:   monsoonSummer,
		ClosedWeekdays: []time.Weekday{time.Monday, time.Tuesday},
		MarginTiers: []MarginTier{
			{Min: 0, Max: 7499, Margin: 2500},
			{Min: 7500, Max: 10999, Margin: 3300},
			{Min: 11000, Max: 1e9, Margin: 4100},
		},
		Deposit: 2000,
	},
	{
		ID:               "ironwood-hall",
		DisplayName:      "Ironwood Hall",
		UsesHouseCaterer: true,
		MaxCapacity:      300,
		GuestCap:         200,
		OveragePerGuest:  22,
		SiteServiceRate:  0.18,
		Pricing: PricingModel{Weekday: map[time.Weekday]float64{
			time.Saturday:  6900,
			time.Friday:    5900,
			time.Sunday:    5400,
			time.Monday:    3900,
			time.Tuesday:   3900,
			time.Wednesday: 3900,
			time.Thursday:  3900,
		}},
		SummerMonths: monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 6999, Margin: 2400},
			{Min: 7000, Max: 10999, Margin: 3200},
			{Min: 11000, Max: 1e9, Margin: 4000},
		},
		Deposit: 1800,
	},
	{
		ID:            "agave-terrace",
		DisplayName:   "Agave Terrace",
		CustomCaterer: "Dos Mesas Kitchen",
		CateringAddOn: 800,
		MaxCapacity:   120,
		Pricing: PricingModel{TieredByGuestDay: []GuestDayTier{
			{MaxGuests: 60, PriceByDay: map[DayBand]float64{
				BandSaturday: 5600, BandFriSun: 4900, BandWeekday: 3900,
			}},
			{MaxGuests: 120, PriceByDay: map[DayBand]float64{
				BandSaturday: 6800, BandFriSun: 5900, BandWeekday: 4700,
			}},
		}},
		SummerMonths: monsoonSummer,
		MarginTiers: []MarginTier{
			{Min: 0, Max: 6499, Margin: 2300},
			{Min: 6500, Max: 9999, Margin: 3000},
			{Min: 10000, Max: 1e9, Margin: 3700},
		},
		Deposit:              1200,
		AllowsSundayBooking:  true,
		AllowsPartnerCaterer: true,
	},
}

var defaultRegistry = mustRegistry()

func mustRegistry() *Registry {
	r, err := NewRegistry(venues)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry built from the static venue table.
func Default() *Registry {
	return defaultRegistry
}
