// Package payplan turns a venue quote into a payment plan: deposit today
// plus equal monthly installments that finish by the final due date, or a
// single pay-in-full charge when the wedding is too close.
package payplan

import (
	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/pricing"
)

// Product selects the installment lead time. Product verticals share one
// plan algorithm and differ only in how many days before the event the
// balance must be collected.
type Product struct {
	Name     string
	LeadDays int
}

var (
	ProductVenue        = Product{Name: "venue", LeadDays: 45}
	ProductMicroWedding = Product{Name: "micro-wedding", LeadDays: 35}
	ProductElopement    = Product{Name: "elopement", LeadDays: 30}
)

// ProductByName resolves a product vertical by its wire name.
func ProductByName(name string) (Product, bool) {
	switch name {
	case ProductVenue.Name, "":
		return ProductVenue, true
	case ProductMicroWedding.Name:
		return ProductMicroWedding, true
	case ProductElopement.Name:
		return ProductElopement, true
	default:
		return Product{}, false
	}
}

// Input is everything Calculate needs. Today is injectable for deterministic
// tests and defaults to the current local calendar date. PlannerCreditCents
// is a coordination fee the couple already paid, credited against the total.
type Input struct {
	VenueID            string
	Guests             int
	WeddingDate        dates.Date
	PayFull            bool
	Today              dates.Date
	PlannerCreditCents int64
	Product            Product
	NoAlcohol          bool
}

// Plan is the computed schedule. For a degenerate (pay-in-full) plan,
// Months, Monthly, and LastInstallment are zero and Deposit equals Total.
// Otherwise Deposit + Monthly*(Months-1) + LastInstallment reconciles to
// Total exactly: the last installment absorbs the rounding remainder.
type Plan struct {
	Total             float64    `json:"total"`
	Deposit           float64    `json:"deposit"`
	Months            int        `json:"months"`
	Monthly           float64    `json:"monthly"`
	LastInstallment   float64    `json:"last_installment"`
	FirstChargeOn     dates.Date `json:"first_charge_on,omitzero"`
	FinalDueDate      dates.Date `json:"final_due_date"`
	PayInFullRequired bool       `json:"pay_in_full_required"`
}

// Calculate computes the payment plan for a booking. It is pure and
// recomputed fresh on every call; callers persist snapshots if they need
// them.
func Calculate(reg *catalog.Registry, in Input) (Plan, error) {
	product := in.Product
	if product.LeadDays <= 0 {
		product = ProductVenue
	}
	today := in.Today
	if today.IsZero() {
		today = dates.Today()
	}

	grossTotal, err := pricing.Total(reg, in.VenueID, in.Guests, in.WeddingDate, pricing.Options{NoAlcohol: in.NoAlcohol})
	if err != nil {
		return Plan{}, err
	}

	total := grossTotal
	if in.PlannerCreditCents > 0 {
		credit := float64(in.PlannerCreditCents) / 100
		if credit > total {
			credit = total
		}
		total = pricing.Round2(total - credit)
	}

	finalDue := in.WeddingDate.AddDays(-product.LeadDays)

	withinWindow := !today.Before(finalDue)
	if in.PayFull || withinWindow {
		return payInFullPlan(total, finalDue, withinWindow), nil
	}

	months := monthsUntil(today, finalDue)
	if months < 1 {
		return payInFullPlan(total, finalDue, true), nil
	}

	deposit, err := pricing.Deposit(reg, in.VenueID, in.Guests, in.WeddingDate, total)
	if err != nil {
		return Plan{}, err
	}
	if deposit > total {
		deposit = total
	}

	remainder := total - deposit
	if remainder < 0 {
		remainder = 0
	}
	monthly := pricing.FloorCents(remainder / float64(months))
	last := pricing.Round2(remainder - monthly*float64(months-1))

	return Plan{
		Total:           total,
		Deposit:         deposit,
		Months:          months,
		Monthly:         monthly,
		LastInstallment: last,
		FirstChargeOn:   today.AddMonths(1),
		FinalDueDate:    finalDue,
	}, nil
}

func payInFullPlan(total float64, finalDue dates.Date, required bool) Plan {
	return Plan{
		Total:             total,
		Deposit:           total,
		FinalDueDate:      finalDue,
		PayInFullRequired: required,
	}
}

// monthsUntil counts billing months from today to the final due date. Any
// started month grants an installment, so a due date even one day out still
// yields a one-payment plan rather than forcing pay-in-full.
func monthsUntil(today, finalDue dates.Date) int {
	months := dates.WholeMonthsBetween(today, finalDue)
	if months < 0 {
		return 0
	}
	if today.AddMonths(months).Before(finalDue) {
		months++
	}
	return months
}
