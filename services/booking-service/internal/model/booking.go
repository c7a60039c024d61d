package model

import (
	"time"

	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/payplan"
)

// Booking is a confirmed venue reservation together with the payment-plan
// snapshot quoted at booking time. The snapshot is what the couple agreed
// to; later recomputations (guest-count changes) are a new quote, not an
// edit of this record.
type Booking struct {
	ID          string
	VenueID     string
	CoupleName  string
	CoupleEmail string
	CouplePhone string
	GuestCount  int
	WeddingDate dates.Date
	Product     string
	NoAlcohol   bool
	Status      string

	Plan payplan.Plan

	SignerName      string
	AgreementSHA256 string
	SignedAt        *time.Time

	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
}
