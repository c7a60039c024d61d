package payplan

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

func calc(t *testing.T, in Input) Plan {
	t.Helper()
	plan, err := Calculate(catalog.Default(), in)
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	return plan
}

// ocotillo-gardens at 120 guests prices at 15132.73 on any non-Friday with a
// flat 2000 deposit; the plan tests pivot on dates around that quote.
const (
	ocotilloTotal   = 15132.73
	ocotilloDeposit = 2000.0
)

func TestPlanBoundaryAroundFinalDue(t *testing.T) {
	today := date(t, "2026-01-10")

	// 46 days out: final due is tomorrow, still one installment month.
	plan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-02-25"), Today: today,
	})
	if plan.PayInFullRequired {
		t.Fatal("46 days out should not force pay in full")
	}
	if plan.Months < 1 {
		t.Fatalf("months = %d, want >= 1", plan.Months)
	}
	if plan.Deposit != ocotilloDeposit {
		t.Fatalf("deposit = %.2f, want %.2f", plan.Deposit, ocotilloDeposit)
	}

	// 44 days out: inside the window, full payment forced.
	plan = calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-02-23"), Today: today,
	})
	if !plan.PayInFullRequired {
		t.Fatal("44 days out should force pay in full")
	}
	if plan.Deposit != plan.Total || plan.Months != 0 || plan.Monthly != 0 || plan.LastInstallment != 0 {
		t.Fatalf("degenerate plan malformed: %+v", plan)
	}

	// Exactly 45 days out: today is on the final due date, also forced.
	plan = calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-02-24"), Today: today,
	})
	if !plan.PayInFullRequired {
		t.Fatal("today on the final due date should force pay in full")
	}
}

func TestPlanInstallmentsReconcileToTheCent(t *testing.T) {
	plan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-09-12"), Today: date(t, "2026-01-10"),
	})
	if plan.PayInFullRequired || plan.Months < 2 {
		t.Fatalf("expected multi-month plan, got %+v", plan)
	}
	sum := plan.Deposit + plan.Monthly*float64(plan.Months-1) + plan.LastInstallment
	if math.Abs(sum-plan.Total) > 1e-9 {
		t.Fatalf("installments sum to %.10f, total is %.2f", sum, plan.Total)
	}
	if plan.Monthly > plan.LastInstallment+1 || plan.LastInstallment < plan.Monthly {
		// Monthly floors to the cent, so the last installment carries the
		// remainder and can only be the same or slightly larger.
		t.Fatalf("monthly %.2f vs last %.2f", plan.Monthly, plan.LastInstallment)
	}
	if plan.Total != ocotilloTotal {
		t.Fatalf("total = %.2f, want %.2f", plan.Total, ocotilloTotal)
	}
}

func TestPlanPayFullRequested(t *testing.T) {
	plan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-09-12"), Today: date(t, "2026-01-10"),
		PayFull: true,
	})
	if plan.PayInFullRequired {
		t.Fatal("voluntary pay-in-full is not PayInFullRequired")
	}
	if plan.Deposit != plan.Total || plan.Months != 0 {
		t.Fatalf("expected degenerate shape, got %+v", plan)
	}
}

func TestPlanFirstChargeAndFinalDue(t *testing.T) {
	today := date(t, "2026-01-31")
	plan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-09-12"), Today: today,
	})
	if plan.FirstChargeOn.String() != "2026-02-28" {
		t.Fatalf("first charge = %s, want month-end clamped 2026-02-28", plan.FirstChargeOn)
	}
	if plan.FinalDueDate.String() != "2026-07-29" {
		t.Fatalf("final due = %s, want 2026-07-29", plan.FinalDueDate)
	}
}

func TestPlanPlannerCreditClamp(t *testing.T) {
	base := Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: date(t, "2026-09-12"), Today: date(t, "2026-01-10"),
	}

	in := base
	in.PlannerCreditCents = 50000 // $500
	plan := calc(t, in)
	if plan.Total != ocotilloTotal-500 {
		t.Fatalf("total = %.2f, want %.2f", plan.Total, ocotilloTotal-500)
	}

	// A credit larger than the gross total zeroes out, never negative.
	in.PlannerCreditCents = 10_000_000
	plan = calc(t, in)
	if plan.Total != 0 {
		t.Fatalf("total = %.2f, want 0", plan.Total)
	}
	if plan.Deposit != 0 || plan.Monthly < 0 || plan.LastInstallment < 0 {
		t.Fatalf("zero-total plan has negative pieces: %+v", plan)
	}
}

func TestPlanProductLeadTimes(t *testing.T) {
	today := date(t, "2026-01-10")
	wedding := today.AddDays(40)

	// 40 days out is inside the venue window (45) but outside the
	// elopement window (30).
	venuePlan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: wedding, Today: today, Product: ProductVenue,
	})
	if !venuePlan.PayInFullRequired {
		t.Fatal("venue product should force pay in full at 40 days")
	}

	elopePlan := calc(t, Input{
		VenueID: "ocotillo-gardens", Guests: 120,
		WeddingDate: wedding, Today: today, Product: ProductElopement,
	})
	if elopePlan.PayInFullRequired {
		t.Fatal("elopement product should still offer a plan at 40 days")
	}
	if elopePlan.FinalDueDate != wedding.AddDays(-30) {
		t.Fatalf("elopement final due = %s", elopePlan.FinalDueDate)
	}
}

func TestPlanUnknownVenue(t *testing.T) {
	_, err := Calculate(catalog.Default(), Input{
		VenueID: "chapel-of-nowhere", Guests: 10,
		WeddingDate: date(t, "2026-09-12"), Today: date(t, "2026-01-10"),
	})
	if !errors.Is(err, catalog.ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestPlanIdempotent(t *testing.T) {
	in := Input{
		VenueID: "verde-river-lodge", Guests: 140,
		WeddingDate: date(t, "2026-09-12"), Today: date(t, "2026-01-10"),
	}
	a := calc(t, in)
	b := calc(t, in)
	if a != b {
		t.Fatalf("same inputs produced different plans:\n%+v\n%+v", a, b)
	}
}
