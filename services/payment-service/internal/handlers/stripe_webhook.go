package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/saguaro-events/venuebook/services/payment-service/internal/outbox"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/schedule"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/storage"
)

// StripeWebhook handles Stripe webhooks (no auth header; signature
// verification is the auth). checkout.session.completed marks the deposit
// paid; payment_intent events settle or back off installment charges that
// did not complete synchronously.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MiB hard cap
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.stripeWebhookSecret, h.stripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	occurredAt := time.Unix(evt.Created, 0).UTC()
	evtType := string(evt.Type)
	h.logger.Info("payment provider event received",
		"provider", "stripe",
		"provider_event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", occurredAt.Format(time.RFC3339),
	)

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	// Idempotency: ignore replayed Stripe events.
	if err := h.repo.InsertProviderEvent(r.Context(), tx, storage.ProviderEvent{
		Provider:        "stripe",
		ProviderEventID: evt.ID,
		EventType:       evtType,
		Payload:         body,
	}); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			h.logger.Info("payment provider event duplicate ignored", "provider", "stripe", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			_ = tx.Commit(r.Context())
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	switch evtType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		if err := h.applyDepositPaid(r.Context(), tx, session, occurredAt); err != nil {
			http.Error(w, "failed to apply deposit payment", http.StatusInternalServerError)
			return
		}

	case "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		_ = h.repo.MarkCheckoutSessionExpired(r.Context(), tx, session.ID, occurredAt)

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &intent); err != nil {
			h.logger.Error("stripe: invalid payment intent payload", "err", err)
			break
		}
		if err := h.applyIntentSucceeded(r.Context(), tx, intent, occurredAt); err != nil {
			http.Error(w, "failed to apply payment", http.StatusInternalServerError)
			return
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &intent); err != nil {
			h.logger.Error("stripe: invalid payment intent payload", "err", err)
			break
		}
		if err := h.applyIntentFailed(r.Context(), tx, intent); err != nil {
			http.Error(w, "failed to record payment failure", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) applyDepositPaid(ctx context.Context, tx pgx.Tx, session stripe.CheckoutSession, occurredAt time.Time) error {
	bookingID := strings.TrimSpace(session.Metadata["booking_id"])
	if bookingID == "" {
		h.logger.Warn("stripe: missing booking_id metadata on checkout session")
		return nil
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	_ = h.repo.MarkCheckoutSessionCompleted(ctx, tx, session.ID, occurredAt)
	if err := h.repo.MarkDepositPaid(ctx, tx, bookingID, occurredAt, customerID, ""); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":   bookingID,
		"amount_cents": session.AmountTotal,
		"paid_at":      occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   bookingID,
		EventType:     outbox.EventDepositPaid,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return h.settleIfDone(ctx, tx, bookingID)
}

func (h *Handler) applyIntentSucceeded(ctx context.Context, tx pgx.Tx, intent stripe.PaymentIntent, occurredAt time.Time) error {
	bookingID := strings.TrimSpace(intent.Metadata["booking_id"])
	paymentMethodID := ""
	if intent.PaymentMethod != nil {
		paymentMethodID = intent.PaymentMethod.ID
	}
	customerID := ""
	if intent.Customer != nil {
		customerID = intent.Customer.ID
	}

	// The deposit intent carries the reusable payment method the charge
	// worker needs later.
	if intent.Metadata["purpose"] == "deposit" {
		if bookingID == "" {
			return nil
		}
		return h.repo.SetPaymentMethod(ctx, tx, bookingID, customerID, paymentMethodID)
	}

	inst, found, err := h.scheduleRepo.GetByIntent(ctx, tx, intent.ID)
	if err != nil {
		return err
	}
	if !found || inst.Status == schedule.StatusPaid {
		return nil
	}
	if err := h.scheduleRepo.MarkPaid(ctx, tx, inst.ID, intent.ID, occurredAt); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id":               inst.BookingID,
		"installment_seq":          inst.Seq,
		"amount_cents":             inst.AmountCents,
		"stripe_payment_intent_id": intent.ID,
		"paid_at":                  occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "installment",
		AggregateID:   inst.BookingID,
		EventType:     outbox.EventInstallmentCharged,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return h.settleIfDone(ctx, tx, inst.BookingID)
}

func (h *Handler) applyIntentFailed(ctx context.Context, tx pgx.Tx, intent stripe.PaymentIntent) error {
	inst, found, err := h.scheduleRepo.GetByIntent(ctx, tx, intent.ID)
	if err != nil {
		return err
	}
	if !found || inst.Status != schedule.StatusProcessing {
		return nil
	}

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}
	attempts := inst.Attempts + 1
	nextAttemptAt := time.Now().UTC().Add(h.retryBackoff)
	return h.scheduleRepo.MarkFailed(ctx, tx, inst.ID, attempts, inst.MaxAttempts, nextAttemptAt, reason)
}

func (h *Handler) settleIfDone(ctx context.Context, tx pgx.Tx, bookingID string) error {
	unpaid, err := h.scheduleRepo.CountUnpaid(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if unpaid > 0 {
		return nil
	}
	return h.repo.SetBookingStatus(ctx, tx, bookingID, storage.BookingSettled)
}
