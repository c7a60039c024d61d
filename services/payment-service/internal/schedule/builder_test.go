package schedule

import (
	"testing"
	"time"
)

func planEvent() PlanEvent {
	return PlanEvent{
		BookingID:            "b-1",
		VenueID:              "ocotillo-gardens",
		CoupleEmail:          "couple@example.com",
		WeddingDate:          "2026-09-12",
		TotalCents:           1513273,
		DepositCents:         200000,
		Months:               7,
		MonthlyCents:         187610,
		LastInstallmentCents: 187613,
		FirstChargeOn:        "2026-02-10",
		FinalDueDate:         "2026-07-29",
	}
}

func TestBuildInstallments(t *testing.T) {
	evt := planEvent()
	installments, err := BuildInstallments(evt)
	if err != nil {
		t.Fatalf("BuildInstallments failed: %v", err)
	}
	if len(installments) != 7 {
		t.Fatalf("expected 7 installments, got %d", len(installments))
	}

	var sum int64
	for i, inst := range installments {
		if inst.Seq != i+1 {
			t.Fatalf("installment %d has seq %d", i, inst.Seq)
		}
		if inst.Status != StatusScheduled {
			t.Fatalf("installment %d status = %q", i, inst.Status)
		}
		sum += inst.AmountCents
	}
	if sum != evt.TotalCents-evt.DepositCents {
		t.Fatalf("installments sum to %d, want %d", sum, evt.TotalCents-evt.DepositCents)
	}

	if got := installments[0].AmountCents; got != 187610 {
		t.Fatalf("first installment = %d, want 187610", got)
	}
	if got := installments[6].AmountCents; got != 187613 {
		t.Fatalf("last installment = %d, want 187613", got)
	}

	first := installments[0].DueOn
	want := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Fatalf("first due on %v, want %v", first, want)
	}
	third := installments[2].DueOn
	want = time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	if !third.Equal(want) {
		t.Fatalf("third due on %v, want %v", third, want)
	}
}

func TestBuildInstallmentsMonthEndClamp(t *testing.T) {
	evt := planEvent()
	evt.Months = 3
	evt.MonthlyCents = 400000
	evt.LastInstallmentCents = 513273
	evt.FirstChargeOn = "2026-01-31"

	installments, err := BuildInstallments(evt)
	if err != nil {
		t.Fatalf("BuildInstallments failed: %v", err)
	}
	if len(installments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(installments))
	}
	// Offsets are taken from the first charge date, so March recovers the
	// original day-of-month after February clamps.
	if got := installments[1].DueOn; !got.Equal(time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("second due on %v, want 2026-02-28", got)
	}
	if got := installments[2].DueOn; !got.Equal(time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("third due on %v, want 2026-03-31", got)
	}
}

func TestBuildInstallmentsPayInFull(t *testing.T) {
	evt := planEvent()
	evt.Months = 0
	evt.MonthlyCents = 0
	evt.LastInstallmentCents = 0
	evt.FirstChargeOn = ""
	evt.DepositCents = evt.TotalCents
	evt.PayInFullRequired = true

	installments, err := BuildInstallments(evt)
	if err != nil {
		t.Fatalf("BuildInstallments failed: %v", err)
	}
	if len(installments) != 0 {
		t.Fatalf("expected no installments for pay-in-full, got %d", len(installments))
	}
}

func TestBuildInstallmentsRejectsBadEvents(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PlanEvent)
	}{
		{"missing booking id", func(e *PlanEvent) { e.BookingID = "" }},
		{"deposit exceeds total", func(e *PlanEvent) { e.DepositCents = e.TotalCents + 1 }},
		{"negative total", func(e *PlanEvent) { e.TotalCents = -1 }},
		{"plan without first charge", func(e *PlanEvent) { e.FirstChargeOn = "" }},
		{"malformed first charge", func(e *PlanEvent) { e.FirstChargeOn = "February 10" }},
	}
	for _, tc := range cases {
		evt := planEvent()
		tc.mutate(&evt)
		if _, err := BuildInstallments(evt); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
