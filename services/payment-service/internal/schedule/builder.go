package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/saguaro-events/venuebook/libs/dates"
)

// PlanEvent is the booking.plan.booked.v1 payload emitted by the booking
// service. Amounts are integer cents; dates are calendar days (YYYY-MM-DD).
type PlanEvent struct {
	BookingID            string `json:"booking_id"`
	VenueID              string `json:"venue_id"`
	CoupleEmail          string `json:"couple_email"`
	WeddingDate          string `json:"wedding_date"`
	TotalCents           int64  `json:"total_cents"`
	DepositCents         int64  `json:"deposit_cents"`
	Months               int    `json:"months"`
	MonthlyCents         int64  `json:"monthly_cents"`
	LastInstallmentCents int64  `json:"last_installment_cents"`
	FirstChargeOn        string `json:"first_charge_on"`
	FinalDueDate         string `json:"final_due_date"`
	PayInFullRequired    bool   `json:"pay_in_full_required"`
}

func (e PlanEvent) Validate() error {
	if e.BookingID == "" || e.CoupleEmail == "" || e.VenueID == "" {
		return errors.New("missing booking identity fields")
	}
	if e.TotalCents < 0 || e.DepositCents < 0 || e.DepositCents > e.TotalCents {
		return fmt.Errorf("inconsistent amounts: total=%d deposit=%d", e.TotalCents, e.DepositCents)
	}
	if e.Months > 0 && e.FirstChargeOn == "" {
		return errors.New("installment plan without first_charge_on")
	}
	return nil
}

// BuildInstallments expands the plan into monthly charge rows. The deposit
// is not a row here; it is collected up front through checkout. A pay-in-full
// plan yields no rows. Amounts reconcile exactly: monthly × (months−1) plus
// the last installment equals total minus deposit.
func BuildInstallments(evt PlanEvent) ([]Installment, error) {
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	if evt.Months < 1 {
		return nil, nil
	}

	firstCharge, err := dates.Parse(evt.FirstChargeOn)
	if err != nil {
		return nil, fmt.Errorf("bad first_charge_on: %w", err)
	}

	installments := make([]Installment, 0, evt.Months)
	for seq := 1; seq <= evt.Months; seq++ {
		amount := evt.MonthlyCents
		if seq == evt.Months {
			amount = evt.LastInstallmentCents
		}
		due := firstCharge.AddMonths(seq - 1)
		installments = append(installments, Installment{
			BookingID:   evt.BookingID,
			Seq:         seq,
			AmountCents: amount,
			DueOn:       time.Date(due.Year, due.Month, due.Day, 0, 0, 0, 0, time.UTC),
			Status:      StatusScheduled,
		})
	}
	return installments, nil
}
