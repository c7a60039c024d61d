package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/saguaro-events/venuebook/services/payment-service/internal/outbox"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/schedule"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/storage"
)

type Handler struct {
	repo                   *storage.Repository
	scheduleRepo           *schedule.Repository
	outboxRepo             *outbox.Repository
	logger                 *slog.Logger
	stripeWebhookSecret    string
	stripeWebhookTolerance time.Duration
	stripeSecretKey        string
	checkoutSuccessURL     string
	checkoutCancelURL      string
	retryBackoff           time.Duration
}

type Config struct {
	StripeWebhookSecret           string
	StripeWebhookToleranceSeconds int
	StripeSecretKey               string
	CheckoutSuccessURL            string
	CheckoutCancelURL             string
	RetryBackoff                  time.Duration
}

func New(repo *storage.Repository, scheduleRepo *schedule.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg Config) *Handler {
	tolSeconds := cfg.StripeWebhookToleranceSeconds
	if tolSeconds <= 0 {
		tolSeconds = 300
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 6 * time.Hour
	}
	return &Handler{
		repo:                   repo,
		scheduleRepo:           scheduleRepo,
		outboxRepo:             outboxRepo,
		logger:                 logger,
		stripeWebhookSecret:    strings.TrimSpace(cfg.StripeWebhookSecret),
		stripeWebhookTolerance: time.Duration(tolSeconds) * time.Second,
		stripeSecretKey:        strings.TrimSpace(cfg.StripeSecretKey),
		checkoutSuccessURL:     strings.TrimSpace(cfg.CheckoutSuccessURL),
		checkoutCancelURL:      strings.TrimSpace(cfg.CheckoutCancelURL),
		retryBackoff:           cfg.RetryBackoff,
	}
}

type checkoutRequest struct {
	BookingID  string `json:"booking_id"`
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
}

// Checkout creates a Stripe Checkout Session collecting the deposit. The
// card is saved for off-session use so the charge worker can run the
// monthly installments without the couple present.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stripeSecretKey == "" {
		http.Error(w, "stripe checkout not configured (STRIPE_SECRET_KEY missing)", http.StatusNotImplemented)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		http.Error(w, "booking_id is required", http.StatusBadRequest)
		return
	}

	booking, err := h.repo.GetBooking(r.Context(), req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if booking.Status == storage.BookingCancelled {
		http.Error(w, "booking is cancelled", http.StatusConflict)
		return
	}
	if booking.Status != storage.BookingAwaitingDeposit {
		http.Error(w, "deposit already paid", http.StatusConflict)
		return
	}

	successURL := strings.TrimSpace(req.SuccessURL)
	if successURL == "" {
		successURL = h.checkoutSuccessURL
	}
	cancelURL := strings.TrimSpace(req.CancelURL)
	if cancelURL == "" {
		cancelURL = h.checkoutCancelURL
	}
	if successURL == "" || cancelURL == "" {
		http.Error(w, "success_url and cancel_url are required (or configure default URLs)", http.StatusBadRequest)
		return
	}

	// Stripe uses a global API key. Keep usage limited to this handler call.
	stripe.Key = h.stripeSecretKey

	// Stripe-level idempotency: allows safe retries.
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(booking.BookingID),
		CustomerEmail:     stripe.String(booking.CoupleEmail),
		CustomerCreation:  stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(booking.DepositCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wedding booking deposit"),
					},
				},
			},
		},
		Metadata: map[string]string{
			"booking_id": booking.BookingID,
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
			Metadata: map[string]string{
				"booking_id": booking.BookingID,
				"purpose":    "deposit",
			},
		},
	}
	params.AddExpand("url")
	if idemKey != "" {
		params.IdempotencyKey = stripe.String(idemKey)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		h.logger.Error("stripe checkout session create failed", "err", err)
		http.Error(w, "failed to create checkout session", http.StatusBadGateway)
		return
	}

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()
	if err := h.repo.UpsertCheckoutSession(r.Context(), tx, storage.CheckoutSession{
		StripeSessionID: sess.ID,
		BookingID:       booking.BookingID,
		Status:          "created",
		URL:             sess.URL,
	}); err != nil {
		http.Error(w, "failed to persist checkout session", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"url":        sess.URL,
	})
}

type scheduleItem struct {
	Seq         int    `json:"seq"`
	AmountCents int64  `json:"amount_cents"`
	DueOn       string `json:"due_on"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	PaidVia     string `json:"stripe_payment_intent_id,omitempty"`
}

type scheduleResponse struct {
	BookingID         string         `json:"booking_id"`
	VenueID           string         `json:"venue_id"`
	Status            string         `json:"status"`
	TotalCents        int64          `json:"total_cents"`
	DepositCents      int64          `json:"deposit_cents"`
	DepositPaidAt     string         `json:"deposit_paid_at,omitempty"`
	PayInFullRequired bool           `json:"pay_in_full_required"`
	Installments      []scheduleItem `json:"installments"`
}

// Schedule returns the payment state for a booking: deposit standing plus
// every installment row.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := strings.TrimSpace(r.URL.Query().Get("booking_id"))
	if bookingID == "" {
		http.Error(w, "booking_id is required", http.StatusBadRequest)
		return
	}

	booking, err := h.repo.GetBooking(r.Context(), bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	installments, err := h.scheduleRepo.ListByBooking(r.Context(), bookingID)
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}

	resp := scheduleResponse{
		BookingID:         booking.BookingID,
		VenueID:           booking.VenueID,
		Status:            booking.Status,
		TotalCents:        booking.TotalCents,
		DepositCents:      booking.DepositCents,
		PayInFullRequired: booking.PayInFullRequired,
		Installments:      make([]scheduleItem, 0, len(installments)),
	}
	if booking.DepositPaidAt != nil {
		resp.DepositPaidAt = booking.DepositPaidAt.UTC().Format(time.RFC3339)
	}
	for _, inst := range installments {
		resp.Installments = append(resp.Installments, scheduleItem{
			Seq:         inst.Seq,
			AmountCents: inst.AmountCents,
			DueOn:       inst.DueOn.UTC().Format("2006-01-02"),
			Status:      inst.Status,
			Attempts:    inst.Attempts,
			LastError:   inst.LastError,
			PaidVia:     inst.StripePaymentIntentID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
