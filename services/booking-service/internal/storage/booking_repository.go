package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/db"
	"github.com/saguaro-events/venuebook/libs/pricing"
	"github.com/saguaro-events/venuebook/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	CoupleEmail     string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, coupleEmail, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, coupleEmail, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (couple_email, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (couple_email, idempotency_key) DO NOTHING
	`, coupleEmail, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, coupleEmail, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, coupleEmail, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE couple_email = $1 AND idempotency_key = $2
	`, coupleEmail, key, bookingID, statusCode, response)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	var firstCharge *time.Time
	if !b.Plan.FirstChargeOn.IsZero() {
		firstCharge = dateToTime(b.Plan.FirstChargeOn)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings
			(id, venue_id, couple_name, couple_email, couple_phone, guest_count, wedding_date,
			 product, no_alcohol, status,
			 total_cents, deposit_cents, months, monthly_cents, last_installment_cents,
			 first_charge_on, final_due_date, pay_in_full_required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, b.ID, b.VenueID, b.CoupleName, b.CoupleEmail, b.CouplePhone, b.GuestCount, dateToTime(b.WeddingDate),
		b.Product, b.NoAlcohol, b.Status,
		pricing.Cents(b.Plan.Total), pricing.Cents(b.Plan.Deposit), b.Plan.Months,
		pricing.Cents(b.Plan.Monthly), pricing.Cents(b.Plan.LastInstallment),
		firstCharge, dateToTime(b.Plan.FinalDueDate), b.Plan.PayInFullRequired)
	return err
}

const bookingColumns = `
	id::text, venue_id, couple_name, couple_email, couple_phone, guest_count, wedding_date,
	product, no_alcohol, status,
	total_cents, deposit_cents, months, monthly_cents, last_installment_cents,
	first_charge_on, final_due_date, pay_in_full_required,
	COALESCE(signer_name, ''), COALESCE(agreement_sha256, ''), signed_at,
	cancelled_at, COALESCE(cancellation_reason, ''), created_at`

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (model.Booking, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingID)
	return scanBooking(row)
}

func (r *BookingRepository) Get(ctx context.Context, bookingID string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, bookingID)
	return scanBooking(row)
}

func (r *BookingRepository) MarkSigned(ctx context.Context, tx pgx.Tx, bookingID, signerName, agreementSHA256 string) (time.Time, error) {
	var signedAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'signed',
			signer_name = $2,
			agreement_sha256 = $3,
			signed_at = now()
		WHERE id = $1
		RETURNING signed_at
	`, bookingID, signerName, agreementSHA256).Scan(&signedAt)
	return signedAt, err
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, bookingID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $2
		WHERE id = $1
		RETURNING cancelled_at
	`, bookingID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) ListByCouple(ctx context.Context, coupleEmail string, limit int) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE couple_email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, coupleEmail, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// VenueHasBookingOn reports whether the venue already holds an active
// booking for the calendar date.
func (r *BookingRepository) VenueHasBookingOn(ctx context.Context, tx pgx.Tx, venueID string, weddingDate dates.Date) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE venue_id = $1 AND wedding_date = $2 AND status IN ('booked', 'signed')
		)
	`, venueID, dateToTime(weddingDate)).Scan(&exists)
	return exists, err
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, coupleEmail, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := tx.QueryRow(ctx, `
		SELECT couple_email, idempotency_key, COALESCE(booking_id::text, ''), COALESCE(status_code, 0), response_payload
		FROM booking_idempotency_keys
		WHERE couple_email = $1 AND idempotency_key = $2
		FOR UPDATE
	`, coupleEmail, key).Scan(&rec.CoupleEmail, &rec.IdempotencyKey, &rec.BookingID, &rec.StatusCode, &rec.ResponsePayload)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var b model.Booking
	var weddingDate time.Time
	var firstCharge *time.Time
	var finalDue time.Time
	var totalCents, depositCents, monthlyCents, lastCents int64
	err := row.Scan(
		&b.ID, &b.VenueID, &b.CoupleName, &b.CoupleEmail, &b.CouplePhone, &b.GuestCount, &weddingDate,
		&b.Product, &b.NoAlcohol, &b.Status,
		&totalCents, &depositCents, &b.Plan.Months, &monthlyCents, &lastCents,
		&firstCharge, &finalDue, &b.Plan.PayInFullRequired,
		&b.SignerName, &b.AgreementSHA256, &b.SignedAt,
		&b.CancelledAt, &b.CancelReason, &b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.WeddingDate = dates.FromTime(weddingDate)
	b.Plan.Total = float64(totalCents) / 100
	b.Plan.Deposit = float64(depositCents) / 100
	b.Plan.Monthly = float64(monthlyCents) / 100
	b.Plan.LastInstallment = float64(lastCents) / 100
	if firstCharge != nil {
		b.Plan.FirstChargeOn = dates.FromTime(*firstCharge)
	}
	b.Plan.FinalDueDate = dates.FromTime(finalDue)
	return b, nil
}

func dateToTime(d dates.Date) *time.Time {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return &t
}
