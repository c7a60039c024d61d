package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/saguaro-events/venuebook/libs/db"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/outbox"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/storage"
)

// ChargeWorker polls due installments and charges them off-session against
// the payment method captured at deposit checkout. FOR UPDATE SKIP LOCKED
// keeps concurrent replicas from double-charging a row; the per-attempt
// Stripe idempotency key covers the crash-after-charge window.
type ChargeWorker struct {
	pool         *db.Pool
	repo         *Repository
	bookings     *storage.Repository
	outbox       *outbox.Repository
	logger       *slog.Logger
	stripeKey    string
	interval     time.Duration
	batchSize    int
	backoff      time.Duration
	chargeIntent func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type ChargeWorkerConfig struct {
	StripeSecretKey string
	Interval        time.Duration
	BatchSize       int
	Backoff         time.Duration
}

func NewChargeWorker(pool *db.Pool, repo *Repository, bookings *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg ChargeWorkerConfig) *ChargeWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 6 * time.Hour
	}
	return &ChargeWorker{
		pool:         pool,
		repo:         repo,
		bookings:     bookings,
		outbox:       outboxRepo,
		logger:       logger,
		stripeKey:    cfg.StripeSecretKey,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		backoff:      cfg.Backoff,
		chargeIntent: paymentintent.New,
	}
}

func (w *ChargeWorker) Run(ctx context.Context) {
	if w.stripeKey == "" {
		w.logger.Warn("charge worker disabled (STRIPE_SECRET_KEY missing)")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("charge batch failed", "err", err)
			}
		}
	}
}

func (w *ChargeWorker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	charges, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(charges) == 0 {
		return tx.Commit(ctx)
	}

	stripe.Key = w.stripeKey
	for _, c := range charges {
		if err := w.charge(ctx, tx, c); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (w *ChargeWorker) charge(ctx context.Context, tx pgx.Tx, c DueCharge) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(c.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(c.StripeCustomerID),
		PaymentMethod: stripe.String(c.StripePaymentMethodID),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
		Metadata: map[string]string{
			"booking_id":      c.BookingID,
			"installment_seq": fmt.Sprintf("%d", c.Seq),
		},
	}
	// One key per row+attempt: a crashed worker that already charged will
	// get the same intent back instead of charging twice.
	params.IdempotencyKey = stripe.String(fmt.Sprintf("installment-%d-attempt-%d", c.ID, c.Attempts+1))

	intent, err := w.chargeIntent(params)
	if err != nil {
		return w.recordFailure(ctx, tx, c, err.Error())
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		now := time.Now().UTC()
		if err := w.repo.MarkPaid(ctx, tx, c.ID, intent.ID, now); err != nil {
			return err
		}
		if err := w.emitCharged(ctx, tx, c, intent.ID, now); err != nil {
			return err
		}
		return w.settleIfDone(ctx, tx, c.BookingID)
	case stripe.PaymentIntentStatusProcessing:
		// Webhook settles it.
		return w.repo.MarkProcessing(ctx, tx, c.ID, intent.ID)
	default:
		return w.recordFailure(ctx, tx, c, fmt.Sprintf("unexpected intent status %s", intent.Status))
	}
}

func (w *ChargeWorker) recordFailure(ctx context.Context, tx pgx.Tx, c DueCharge, reason string) error {
	attempts := c.Attempts + 1
	nextAttemptAt := time.Now().UTC().Add(w.backoff)
	w.logger.Warn("installment charge failed",
		"booking_id", c.BookingID, "seq", c.Seq, "attempt", attempts, "err", reason)

	if err := w.repo.MarkFailed(ctx, tx, c.ID, attempts, c.MaxAttempts, nextAttemptAt, reason); err != nil {
		return err
	}

	final := attempts >= c.MaxAttempts
	payload, err := json.Marshal(map[string]any{
		"booking_id":      c.BookingID,
		"installment_seq": c.Seq,
		"amount_cents":    c.AmountCents,
		"attempt":         attempts,
		"final":           final,
		"reason":          reason,
		"failed_at":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "installment",
		AggregateID:   c.BookingID,
		EventType:     outbox.EventInstallmentFailed,
		Payload:       payload,
	})
}

func (w *ChargeWorker) emitCharged(ctx context.Context, tx pgx.Tx, c DueCharge, intentID string, paidAt time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":               c.BookingID,
		"installment_seq":          c.Seq,
		"amount_cents":             c.AmountCents,
		"stripe_payment_intent_id": intentID,
		"paid_at":                  paidAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "installment",
		AggregateID:   c.BookingID,
		EventType:     outbox.EventInstallmentCharged,
		Payload:       payload,
	})
}

func (w *ChargeWorker) settleIfDone(ctx context.Context, tx pgx.Tx, bookingID string) error {
	unpaid, err := w.repo.CountUnpaid(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if unpaid > 0 {
		return nil
	}
	return w.bookings.SetBookingStatus(ctx, tx, bookingID, storage.BookingSettled)
}
