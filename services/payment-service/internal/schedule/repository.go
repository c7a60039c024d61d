package schedule

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saguaro-events/venuebook/libs/db"
)

type Installment struct {
	ID                    int64
	BookingID             string
	Seq                   int
	AmountCents           int64
	DueOn                 time.Time
	Status                string
	Attempts              int
	MaxAttempts           int
	NextAttemptAt         time.Time
	StripePaymentIntentID string
	LastError             string
}

const (
	StatusScheduled  = "scheduled"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, inst Installment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO installments (booking_id, seq, amount_cents, due_on, status, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $4)
		ON CONFLICT (booking_id, seq) DO NOTHING
	`, inst.BookingID, inst.Seq, inst.AmountCents, inst.DueOn, StatusScheduled)
	return err
}

// DueCharge is an installment joined with the Stripe handles needed to
// charge it off-session. Rows only surface once the deposit has been paid
// and a reusable payment method is on file.
type DueCharge struct {
	Installment
	CoupleEmail           string
	StripeCustomerID      string
	StripePaymentMethodID string
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]DueCharge, error) {
	rows, err := tx.Query(ctx, `
		SELECT i.id, i.booking_id::text, i.seq, i.amount_cents, i.due_on, i.status,
		       i.attempts, i.max_attempts, i.next_attempt_at,
		       COALESCE(i.stripe_payment_intent_id, ''), COALESCE(i.last_error, ''),
		       b.couple_email, b.stripe_customer_id, b.stripe_payment_method_id
		FROM installments i
		JOIN payment_bookings b ON b.booking_id = i.booking_id
		WHERE i.status = 'scheduled'
		  AND i.due_on <= now()
		  AND i.next_attempt_at <= now()
		  AND b.status = 'active'
		  AND b.stripe_customer_id IS NOT NULL
		  AND b.stripe_payment_method_id IS NOT NULL
		ORDER BY i.due_on
		LIMIT $1
		FOR UPDATE OF i SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []DueCharge
	for rows.Next() {
		var c DueCharge
		if err := rows.Scan(&c.ID, &c.BookingID, &c.Seq, &c.AmountCents, &c.DueOn, &c.Status,
			&c.Attempts, &c.MaxAttempts, &c.NextAttemptAt,
			&c.StripePaymentIntentID, &c.LastError,
			&c.CoupleEmail, &c.StripeCustomerID, &c.StripePaymentMethodID); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return charges, nil
}

func (r *Repository) MarkPaid(ctx context.Context, tx pgx.Tx, id int64, intentID string, paidAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE installments
		SET status = 'paid',
		    stripe_payment_intent_id = COALESCE(NULLIF($2, ''), stripe_payment_intent_id),
		    paid_at = $3,
		    updated_at = now()
		WHERE id = $1
	`, id, intentID, paidAt)
	return err
}

func (r *Repository) MarkProcessing(ctx context.Context, tx pgx.Tx, id int64, intentID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE installments
		SET status = 'processing',
		    stripe_payment_intent_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, intentID)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextAttemptAt time.Time, lastError string) error {
	status := StatusScheduled
	if attempts >= maxAttempts {
		status = StatusFailed
	}
	_, err := tx.Exec(ctx, `
		UPDATE installments
		SET attempts = $2,
		    status = $3,
		    next_attempt_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextAttemptAt, lastError)
	return err
}

// GetByIntent locks the installment tied to a payment intent. Used by the
// Stripe webhook to settle charges that did not complete synchronously.
func (r *Repository) GetByIntent(ctx context.Context, tx pgx.Tx, intentID string) (Installment, bool, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, booking_id::text, seq, amount_cents, due_on, status,
		       attempts, max_attempts, next_attempt_at,
		       COALESCE(stripe_payment_intent_id, ''), COALESCE(last_error, '')
		FROM installments
		WHERE stripe_payment_intent_id = $1
		FOR UPDATE
	`, intentID)
	var inst Installment
	err := row.Scan(&inst.ID, &inst.BookingID, &inst.Seq, &inst.AmountCents, &inst.DueOn, &inst.Status,
		&inst.Attempts, &inst.MaxAttempts, &inst.NextAttemptAt,
		&inst.StripePaymentIntentID, &inst.LastError)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Installment{}, false, nil
		}
		return Installment{}, false, err
	}
	return inst, true, nil
}

func (r *Repository) CancelPending(ctx context.Context, tx pgx.Tx, bookingID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE installments
		SET status = 'cancelled', updated_at = now()
		WHERE booking_id = $1 AND status IN ('scheduled', 'failed')
	`, bookingID)
	return err
}

func (r *Repository) CountUnpaid(ctx context.Context, tx pgx.Tx, bookingID string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT count(*)
		FROM installments
		WHERE booking_id = $1 AND status NOT IN ('paid', 'cancelled')
	`, bookingID).Scan(&n)
	return n, err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, booking_id::text, seq, amount_cents, due_on, status,
		       attempts, max_attempts, next_attempt_at,
		       COALESCE(stripe_payment_intent_id, ''), COALESCE(last_error, '')
		FROM installments
		WHERE booking_id = $1
		ORDER BY seq
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []Installment
	for rows.Next() {
		var inst Installment
		if err := rows.Scan(&inst.ID, &inst.BookingID, &inst.Seq, &inst.AmountCents, &inst.DueOn, &inst.Status,
			&inst.Attempts, &inst.MaxAttempts, &inst.NextAttemptAt,
			&inst.StripePaymentIntentID, &inst.LastError); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return installments, nil
}
