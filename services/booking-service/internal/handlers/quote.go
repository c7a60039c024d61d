package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/payplan"
	"github.com/saguaro-events/venuebook/libs/pricing"
)

// QuoteHandler serves the stateless pricing endpoints: venue catalog, grand
// totals, and payment-plan quotes. Nothing here touches storage; quotes are
// recomputed fresh on every request.
type QuoteHandler struct {
	registry *catalog.Registry
	logger   *slog.Logger
}

func NewQuoteHandler(registry *catalog.Registry, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{registry: registry, logger: logger}
}

type venueItem struct {
	VenueID              string   `json:"venue_id"`
	DisplayName          string   `json:"display_name"`
	MaxCapacity          int      `json:"max_capacity"`
	GuestTiered          bool     `json:"guest_tiered"`
	UsesHouseCaterer     bool     `json:"uses_house_caterer"`
	CustomCaterer        string   `json:"custom_caterer,omitempty"`
	AllowsSundayBooking  bool     `json:"allows_sunday_booking"`
	AllowsPartnerCaterer bool     `json:"allows_partner_caterer"`
	ClosedWeekdays       []string `json:"closed_weekdays,omitempty"`
	SpaceByTier          []string `json:"space_by_tier,omitempty"`
	Included             []string `json:"included,omitempty"`
}

func (h *QuoteHandler) Venues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	venues := h.registry.All()
	items := make([]venueItem, 0, len(venues))
	for _, v := range venues {
		item := venueItem{
			VenueID:              v.ID,
			DisplayName:          v.DisplayName,
			MaxCapacity:          v.MaxCapacity,
			GuestTiered:          v.IsGuestTiered(),
			UsesHouseCaterer:     v.UsesHouseCaterer,
			CustomCaterer:        v.CustomCaterer,
			AllowsSundayBooking:  v.AllowsSundayBooking,
			AllowsPartnerCaterer: v.AllowsPartnerCaterer,
			SpaceByTier:          v.SpaceByTier,
			Included:             v.IncludedStripPatterns,
		}
		for _, d := range v.ClosedWeekdays {
			item.ClosedWeekdays = append(item.ClosedWeekdays, strings.ToLower(d.String()))
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

type totalResponse struct {
	VenueID     string     `json:"venue_id"`
	Guests      int        `json:"guests"`
	WeddingDate dates.Date `json:"wedding_date"`
	Total       float64    `json:"total"`
}

func (h *QuoteHandler) Total(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	venueID := strings.TrimSpace(r.URL.Query().Get("venue_id"))
	if venueID == "" {
		http.Error(w, "venue_id is required", http.StatusBadRequest)
		return
	}
	guests, ok := parseGuests(r.URL.Query().Get("guests"))
	if !ok {
		http.Error(w, "guests must be a non-negative integer", http.StatusBadRequest)
		return
	}
	weddingDate, err := dates.Parse(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	noAlcohol := r.URL.Query().Get("no_alcohol") == "true"

	total, err := pricing.Total(h.registry, venueID, guests, weddingDate, pricing.Options{NoAlcohol: noAlcohol})
	if err != nil {
		h.writePricingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalResponse{
		VenueID:     venueID,
		Guests:      guests,
		WeddingDate: weddingDate,
		Total:       total,
	})
}

type planRequest struct {
	VenueID            string `json:"venue_id"`
	Guests             int    `json:"guests"`
	WeddingDate        string `json:"wedding_date"`
	PayFull            bool   `json:"pay_full"`
	Product            string `json:"product,omitempty"`
	NoAlcohol          bool   `json:"no_alcohol,omitempty"`
	PlannerCreditCents int64  `json:"planner_credit_cents,omitempty"`
}

func (h *QuoteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	in, errMsg := h.planInput(req)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	plan, err := payplan.Calculate(h.registry, in)
	if err != nil {
		h.writePricingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *QuoteHandler) planInput(req planRequest) (payplan.Input, string) {
	req.VenueID = strings.TrimSpace(req.VenueID)
	if req.VenueID == "" {
		return payplan.Input{}, "venue_id is required"
	}
	if req.Guests < 0 {
		return payplan.Input{}, "guests must be a non-negative integer"
	}
	weddingDate, err := dates.Parse(strings.TrimSpace(req.WeddingDate))
	if err != nil {
		return payplan.Input{}, "wedding_date must be YYYY-MM-DD"
	}
	product, ok := payplan.ProductByName(strings.TrimSpace(req.Product))
	if !ok {
		return payplan.Input{}, "unknown product"
	}
	if req.PlannerCreditCents < 0 {
		return payplan.Input{}, "planner_credit_cents must not be negative"
	}
	return payplan.Input{
		VenueID:            req.VenueID,
		Guests:             req.Guests,
		WeddingDate:        weddingDate,
		PayFull:            req.PayFull,
		PlannerCreditCents: req.PlannerCreditCents,
		Product:            product,
		NoAlcohol:          req.NoAlcohol,
	}, ""
}

func (h *QuoteHandler) writePricingError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrUnknownVenue) {
		http.Error(w, "unknown venue", http.StatusNotFound)
		return
	}
	h.logger.Error("quote computation failed", "err", err)
	http.Error(w, "quote computation failed", http.StatusInternalServerError)
}

func parseGuests(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
