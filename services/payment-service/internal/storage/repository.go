package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saguaro-events/venuebook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// PaymentBooking is the payment-side projection of a booking, materialized
// from booking.plan.booked.v1. The Stripe customer and payment method are
// filled in once the couple completes deposit checkout; installment charges
// cannot run before then.
type PaymentBooking struct {
	BookingID             string
	CoupleEmail           string
	VenueID               string
	WeddingDate           time.Time
	TotalCents            int64
	DepositCents          int64
	PayInFullRequired     bool
	Status                string
	StripeCustomerID      string
	StripePaymentMethodID string
	DepositPaidAt         *time.Time
	CreatedAt             time.Time
}

const (
	BookingAwaitingDeposit = "awaiting_deposit"
	BookingActive          = "active"
	BookingSettled         = "settled"
	BookingCancelled       = "cancelled"
)

func (r *Repository) InsertBooking(ctx context.Context, tx pgx.Tx, b PaymentBooking) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_bookings
			(booking_id, couple_email, venue_id, wedding_date, total_cents, deposit_cents, pay_in_full_required, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id) DO NOTHING
	`, b.BookingID, b.CoupleEmail, b.VenueID, b.WeddingDate, b.TotalCents, b.DepositCents, b.PayInFullRequired, BookingAwaitingDeposit)
	return err
}

const bookingColumns = `
	booking_id::text, couple_email, venue_id, wedding_date, total_cents, deposit_cents,
	pay_in_full_required, status,
	COALESCE(stripe_customer_id, ''), COALESCE(stripe_payment_method_id, ''),
	deposit_paid_at, created_at`

func (r *Repository) GetBooking(ctx context.Context, bookingID string) (PaymentBooking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM payment_bookings
		WHERE booking_id = $1
	`, bookingID)
	return scanBooking(row)
}

func (r *Repository) GetBookingForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (PaymentBooking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM payment_bookings
		WHERE booking_id = $1
		FOR UPDATE
	`, bookingID)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (PaymentBooking, error) {
	var b PaymentBooking
	err := row.Scan(&b.BookingID, &b.CoupleEmail, &b.VenueID, &b.WeddingDate, &b.TotalCents, &b.DepositCents,
		&b.PayInFullRequired, &b.Status,
		&b.StripeCustomerID, &b.StripePaymentMethodID,
		&b.DepositPaidAt, &b.CreatedAt)
	return b, err
}

// MarkDepositPaid stores the reusable Stripe handles captured at checkout
// and flips the booking to active.
func (r *Repository) MarkDepositPaid(ctx context.Context, tx pgx.Tx, bookingID string, paidAt time.Time, customerID, paymentMethodID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payment_bookings
		SET status = $2,
			deposit_paid_at = $3,
			stripe_customer_id = NULLIF($4, ''),
			stripe_payment_method_id = COALESCE(NULLIF($5, ''), stripe_payment_method_id),
			updated_at = now()
		WHERE booking_id = $1 AND status = $6
	`, bookingID, BookingActive, paidAt, customerID, paymentMethodID, BookingAwaitingDeposit)
	return err
}

func (r *Repository) SetPaymentMethod(ctx context.Context, tx pgx.Tx, bookingID, customerID, paymentMethodID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payment_bookings
		SET stripe_customer_id = COALESCE(NULLIF($2, ''), stripe_customer_id),
			stripe_payment_method_id = COALESCE(NULLIF($3, ''), stripe_payment_method_id),
			updated_at = now()
		WHERE booking_id = $1
	`, bookingID, customerID, paymentMethodID)
	return err
}

func (r *Repository) SetBookingStatus(ctx context.Context, tx pgx.Tx, bookingID, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payment_bookings
		SET status = $2, updated_at = now()
		WHERE booking_id = $1
	`, bookingID, status)
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type CheckoutSession struct {
	StripeSessionID string
	BookingID       string
	Status          string
	URL             string
}

func (r *Repository) UpsertCheckoutSession(ctx context.Context, tx pgx.Tx, s CheckoutSession) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO checkout_sessions (stripe_session_id, booking_id, status, url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stripe_session_id) DO UPDATE
		SET status = EXCLUDED.status, url = EXCLUDED.url, updated_at = now()
	`, s.StripeSessionID, s.BookingID, s.Status, s.URL)
	return err
}

func (r *Repository) MarkCheckoutSessionCompleted(ctx context.Context, tx pgx.Tx, stripeSessionID string, completedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'completed', completed_at = $2, updated_at = now()
		WHERE stripe_session_id = $1
	`, stripeSessionID, completedAt)
	return err
}

func (r *Repository) MarkCheckoutSessionExpired(ctx context.Context, tx pgx.Tx, stripeSessionID string, expiredAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE checkout_sessions
		SET status = 'expired', expired_at = $2, updated_at = now()
		WHERE stripe_session_id = $1
	`, stripeSessionID, expiredAt)
	return err
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

func (r *Repository) InsertProviderEvent(ctx context.Context, tx pgx.Tx, evt ProviderEvent) error {
	var payload any
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		// keep raw JSON error as a hard failure: webhook should be well-formed.
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateProviderEvent
	}
	return nil
}
