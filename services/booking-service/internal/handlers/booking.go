package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/payplan"
	"github.com/saguaro-events/venuebook/libs/pricing"
	"github.com/saguaro-events/venuebook/services/booking-service/internal/model"
	"github.com/saguaro-events/venuebook/services/booking-service/internal/outbox"
	"github.com/saguaro-events/venuebook/services/booking-service/internal/storage"
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	registry   *catalog.Registry
	logger     *slog.Logger
	today      func() dates.Date
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, registry *catalog.Registry, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		registry:   registry,
		logger:     logger,
		today:      dates.Today,
	}
}

type createBookingRequest struct {
	VenueID            string `json:"venue_id"`
	CoupleName         string `json:"couple_name"`
	CoupleEmail        string `json:"couple_email"`
	CouplePhone        string `json:"couple_phone"`
	Guests             int    `json:"guests"`
	WeddingDate        string `json:"wedding_date"`
	Product            string `json:"product,omitempty"`
	NoAlcohol          bool   `json:"no_alcohol,omitempty"`
	PayFull            bool   `json:"pay_full,omitempty"`
	PlannerCreditCents int64  `json:"planner_credit_cents,omitempty"`
}

type bookingResponse struct {
	BookingID   string       `json:"booking_id"`
	VenueID     string       `json:"venue_id"`
	GuestCount  int          `json:"guest_count"`
	WeddingDate dates.Date   `json:"wedding_date"`
	Product     string       `json:"product"`
	Status      string       `json:"status"`
	Plan        payplan.Plan `json:"plan"`
}

type signBookingRequest struct {
	BookingID       string `json:"booking_id"`
	SignerName      string `json:"signer_name"`
	AgreementSHA256 string `json:"agreement_sha256"`
}

type signBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	SignedAt  string `json:"signed_at"`
}

type cancelBookingRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type cancelBookingResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type listBookingItem struct {
	BookingID   string     `json:"booking_id"`
	VenueID     string     `json:"venue_id"`
	GuestCount  int        `json:"guest_count"`
	WeddingDate dates.Date `json:"wedding_date"`
	Product     string     `json:"product"`
	Status      string     `json:"status"`
	Total       float64    `json:"total"`
	Deposit     float64    `json:"deposit"`
	SignedAt    string     `json:"signed_at,omitempty"`
	CancelledAt string     `json:"cancelled_at,omitempty"`
	CreatedAt   string     `json:"created_at"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.VenueID = strings.TrimSpace(req.VenueID)
	req.CoupleName = strings.TrimSpace(req.CoupleName)
	req.CoupleEmail = strings.TrimSpace(strings.ToLower(req.CoupleEmail))
	if req.VenueID == "" || req.CoupleName == "" || req.CoupleEmail == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if req.Guests < 0 {
		http.Error(w, "guests must be a non-negative integer", http.StatusBadRequest)
		return
	}
	weddingDate, err := dates.Parse(strings.TrimSpace(req.WeddingDate))
	if err != nil {
		http.Error(w, "wedding_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	product, ok := payplan.ProductByName(strings.TrimSpace(req.Product))
	if !ok {
		http.Error(w, "unknown product", http.StatusBadRequest)
		return
	}
	if req.PlannerCreditCents < 0 {
		http.Error(w, "planner_credit_cents must not be negative", http.StatusBadRequest)
		return
	}

	venue, err := h.registry.Get(req.VenueID)
	if err != nil {
		http.Error(w, "unknown venue", http.StatusNotFound)
		return
	}

	today := h.today()
	if !weddingDate.After(today) {
		http.Error(w, "wedding_date must be in the future", http.StatusUnprocessableEntity)
		return
	}
	if venue.IsClosedOn(weddingDate.Weekday()) {
		http.Error(w, "venue is closed on that day of week", http.StatusUnprocessableEntity)
		return
	}
	if weddingDate.Weekday() == time.Sunday && !venue.AllowsSundayBooking {
		http.Error(w, "venue does not host Sunday weddings", http.StatusUnprocessableEntity)
		return
	}
	if venue.MaxCapacity > 0 && req.Guests > venue.MaxCapacity {
		http.Error(w, "guest count exceeds venue capacity", http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, req.CoupleEmail, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 && len(rec.ResponsePayload) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	// One confirmed wedding per venue per date. Cancelled bookings free the slot.
	taken, err := h.repo.VenueHasBookingOn(ctx, tx, req.VenueID, weddingDate)
	if err != nil {
		http.Error(w, "failed to check date availability", http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "venue already booked for that date", http.StatusConflict)
		return
	}

	plan, err := payplan.Calculate(h.registry, payplan.Input{
		VenueID:            req.VenueID,
		Guests:             req.Guests,
		WeddingDate:        weddingDate,
		PayFull:            req.PayFull,
		Today:              today,
		PlannerCreditCents: req.PlannerCreditCents,
		Product:            product,
		NoAlcohol:          req.NoAlcohol,
	})
	if err != nil {
		h.logger.Error("plan computation failed", "venue_id", req.VenueID, "err", err)
		http.Error(w, "plan computation failed", http.StatusInternalServerError)
		return
	}

	booking := &model.Booking{
		ID:          uuid.NewString(),
		VenueID:     req.VenueID,
		CoupleName:  req.CoupleName,
		CoupleEmail: req.CoupleEmail,
		CouplePhone: strings.TrimSpace(req.CouplePhone),
		GuestCount:  req.Guests,
		WeddingDate: weddingDate,
		Product:     product.Name,
		NoAlcohol:   req.NoAlcohol,
		Status:      "booked",
		Plan:        plan,
	}
	if err := h.repo.Create(ctx, tx, booking); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "venue already booked for that date", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(planBookedEvent(booking))
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     outbox.EventPlanBooked,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(bookingResponse{
		BookingID:   booking.ID,
		VenueID:     booking.VenueID,
		GuestCount:  booking.GuestCount,
		WeddingDate: booking.WeddingDate,
		Product:     booking.Product,
		Status:      booking.Status,
		Plan:        plan,
	})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, req.CoupleEmail, idempotencyKey, booking.ID, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// planBookedEvent is the wire payload the payment service consumes to
// materialize the installment schedule. Amounts are integer cents.
func planBookedEvent(b *model.Booking) map[string]any {
	evt := map[string]any{
		"booking_id":             b.ID,
		"venue_id":               b.VenueID,
		"couple_name":            b.CoupleName,
		"couple_email":           b.CoupleEmail,
		"guest_count":            b.GuestCount,
		"wedding_date":           b.WeddingDate.String(),
		"product":                b.Product,
		"total_cents":            pricing.Cents(b.Plan.Total),
		"deposit_cents":          pricing.Cents(b.Plan.Deposit),
		"months":                 b.Plan.Months,
		"monthly_cents":          pricing.Cents(b.Plan.Monthly),
		"last_installment_cents": pricing.Cents(b.Plan.LastInstallment),
		"final_due_date":         b.Plan.FinalDueDate.String(),
		"pay_in_full_required":   b.Plan.PayInFullRequired,
	}
	if !b.Plan.FirstChargeOn.IsZero() {
		evt["first_charge_on"] = b.Plan.FirstChargeOn.String()
	}
	return evt
}

func (h *BookingHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req signBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.SignerName = strings.TrimSpace(req.SignerName)
	req.AgreementSHA256 = strings.ToLower(strings.TrimSpace(req.AgreementSHA256))
	if req.BookingID == "" || req.SignerName == "" {
		http.Error(w, "booking_id and signer_name required", http.StatusBadRequest)
		return
	}
	if len(req.AgreementSHA256) != 64 {
		http.Error(w, "agreement_sha256 must be a hex sha-256 digest", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetForUpdate(ctx, tx, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	if booking.Status == "signed" && booking.SignedAt != nil {
		writeJSON(w, http.StatusOK, signBookingResponse{
			BookingID: booking.ID,
			Status:    booking.Status,
			SignedAt:  formatTimestamp(*booking.SignedAt),
		})
		return
	}
	if booking.Status != "booked" {
		http.Error(w, "booking cannot be signed", http.StatusConflict)
		return
	}

	signedAt, err := h.repo.MarkSigned(ctx, tx, booking.ID, req.SignerName, req.AgreementSHA256)
	if err != nil {
		http.Error(w, "failed to sign booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":       booking.ID,
		"venue_id":         booking.VenueID,
		"couple_email":     booking.CoupleEmail,
		"signer_name":      req.SignerName,
		"agreement_sha256": req.AgreementSHA256,
		"signed_at":        formatTimestamp(signedAt),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     outbox.EventContractSigned,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, signBookingResponse{
		BookingID: booking.ID,
		Status:    "signed",
		SignedAt:  formatTimestamp(signedAt),
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.BookingID == "" {
		http.Error(w, "booking_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	booking, err := h.repo.GetForUpdate(ctx, tx, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	if booking.Status == "cancelled" && booking.CancelledAt != nil {
		h.writeCancelResponse(w, booking.ID, *booking.CancelledAt)
		return
	}

	cancelledAt, err := h.repo.Cancel(ctx, tx, booking.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"booking_id":   booking.ID,
		"venue_id":     booking.VenueID,
		"couple_email": booking.CoupleEmail,
		"wedding_date": booking.WeddingDate.String(),
		"cancelled_at": formatTimestamp(cancelledAt),
		"reason":       req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   booking.ID,
		EventType:     outbox.EventCancelled,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, booking.ID, cancelledAt)
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, bookingID string, cancelledAt time.Time) {
	writeJSON(w, http.StatusOK, cancelBookingResponse{
		BookingID:   bookingID,
		Status:      "cancelled",
		CancelledAt: formatTimestamp(cancelledAt),
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	coupleEmail := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("couple_email")))
	if coupleEmail == "" {
		http.Error(w, "couple_email required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	bookings, err := h.repo.ListByCouple(r.Context(), coupleEmail, limit)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]listBookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := listBookingItem{
			BookingID:   b.ID,
			VenueID:     b.VenueID,
			GuestCount:  b.GuestCount,
			WeddingDate: b.WeddingDate,
			Product:     b.Product,
			Status:      b.Status,
			Total:       b.Plan.Total,
			Deposit:     b.Plan.Deposit,
			CreatedAt:   formatTimestamp(b.CreatedAt),
		}
		if b.SignedAt != nil {
			item.SignedAt = formatTimestamp(*b.SignedAt)
		}
		if b.CancelledAt != nil {
			item.CancelledAt = formatTimestamp(*b.CancelledAt)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}
