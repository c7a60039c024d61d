package pricing

import (
	"time"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
)

// Deposit returns the amount owed today to hold a venue. Flat-deposit venues
// return their contracted amount; formula venues derive the deposit from a
// food-and-beverage requirement with a Friday minimum. The result never
// exceeds totalPrice when totalPrice is positive, and never goes below zero.
func Deposit(reg *catalog.Registry, venueID string, guests int, date dates.Date, totalPrice float64) (float64, error) {
	v, err := reg.Get(venueID)
	if err != nil {
		return 0, err
	}

	var deposit float64
	if calc := v.DepositCalculation; calc != nil {
		fnb := calc.PerGuestFoodAndBev * float64(guests)
		if date.Weekday() == time.Friday && fnb < calc.FridayFoodAndBevMin {
			fnb = calc.FridayFoodAndBevMin
		}
		deposit = calc.DepositPercent * (calc.BaseSiteFee + fnb)
	} else {
		deposit = v.Deposit
	}

	if totalPrice > 0 && deposit > totalPrice {
		deposit = totalPrice
	}
	if deposit < 0 {
		deposit = 0
	}
	return Round2(deposit), nil
}
