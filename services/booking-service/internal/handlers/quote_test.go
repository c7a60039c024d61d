package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/payplan"
)

func newTestQuoteHandler(t *testing.T) *QuoteHandler {
	t.Helper()
	return NewQuoteHandler(catalog.Default(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestVenuesList(t *testing.T) {
	h := newTestQuoteHandler(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/venues", nil)
	rw := httptest.NewRecorder()
	h.Venues(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var items []venueItem
	if err := json.Unmarshal(rw.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != len(catalog.Default().All()) {
		t.Fatalf("expected %d venues, got %d", len(catalog.Default().All()), len(items))
	}
	for _, item := range items {
		if item.VenueID == "" || item.DisplayName == "" {
			t.Fatalf("venue item missing id or name: %+v", item)
		}
	}
}

func TestTotalQuote(t *testing.T) {
	h := newTestQuoteHandler(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/quotes/total?venue_id=saguaro-hills&guests=120&date=2026-10-10", nil)
	rw := httptest.NewRecorder()
	h.Total(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	var resp totalResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 9227.39 {
		t.Fatalf("expected total 9227.39, got %v", resp.Total)
	}
}

func TestTotalQuoteValidation(t *testing.T) {
	h := newTestQuoteHandler(t)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"missing venue", "guests=100&date=2026-10-10", http.StatusBadRequest},
		{"bad guests", "venue_id=saguaro-hills&guests=ten&date=2026-10-10", http.StatusBadRequest},
		{"negative guests", "venue_id=saguaro-hills&guests=-5&date=2026-10-10", http.StatusBadRequest},
		{"bad date", "venue_id=saguaro-hills&guests=100&date=10/10/2026", http.StatusBadRequest},
		{"unknown venue", "venue_id=nowhere&guests=100&date=2026-10-10", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/quotes/total?"+tc.query, nil)
		rw := httptest.NewRecorder()
		h.Total(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rw.Code)
		}
	}
}

func TestPlanQuote(t *testing.T) {
	h := newTestQuoteHandler(t)

	// Saguaro Hills is flat-priced, so the total does not depend on the
	// weekday the relative date lands on.
	weddingDate := dates.Today().AddDays(300)
	body := fmt.Sprintf(`{"venue_id":"saguaro-hills","guests":120,"wedding_date":%q}`, weddingDate.String())
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/quotes/plan", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.Plan(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	var plan payplan.Plan
	if err := json.Unmarshal(rw.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if plan.Total != 9227.39 {
		t.Fatalf("expected total 9227.39, got %v", plan.Total)
	}
	if plan.Deposit != 1000 {
		t.Fatalf("expected deposit 1000, got %v", plan.Deposit)
	}
	if plan.PayInFullRequired || plan.Months < 1 {
		t.Fatalf("expected an installment plan 300 days out, got %+v", plan)
	}
}

func TestPlanQuoteRejectsBadRequests(t *testing.T) {
	h := newTestQuoteHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"not json", "not-json", http.StatusBadRequest},
		{"missing venue", `{"guests":100,"wedding_date":"2026-10-10"}`, http.StatusBadRequest},
		{"bad date", `{"venue_id":"saguaro-hills","guests":100,"wedding_date":"soon"}`, http.StatusBadRequest},
		{"unknown product", `{"venue_id":"saguaro-hills","guests":100,"wedding_date":"2026-10-10","product":"cruise"}`, http.StatusBadRequest},
		{"negative credit", `{"venue_id":"saguaro-hills","guests":100,"wedding_date":"2026-10-10","planner_credit_cents":-100}`, http.StatusBadRequest},
		{"unknown venue", `{"venue_id":"nowhere","guests":100,"wedding_date":"2026-10-10"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/quotes/plan", strings.NewReader(tc.body))
		rw := httptest.NewRecorder()
		h.Plan(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rw.Code, rw.Body.String())
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestQuoteHandler(t)

	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/quotes/total", nil)
	rw := httptest.NewRecorder()
	h.Total(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/quotes/plan", nil)
	rw = httptest.NewRecorder()
	h.Plan(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}
