package dates

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) Date {
	t.Helper()
	d, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", s, err)
	}
	return d
}

func TestParseAndWeekday(t *testing.T) {
	d := mustParse(t, "2026-10-10")
	if d.Weekday() != time.Saturday {
		t.Fatalf("expected Saturday, got %s", d.Weekday())
	}
	if d.String() != "2026-10-10" {
		t.Fatalf("round trip mismatch: %s", d.String())
	}
	if _, err := Parse("10/10/2026"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestAddDays(t *testing.T) {
	d := mustParse(t, "2026-03-01")
	if got := d.AddDays(-1).String(); got != "2026-02-28" {
		t.Fatalf("expected 2026-02-28, got %s", got)
	}
	if got := mustParse(t, "2026-12-20").AddDays(15).String(); got != "2027-01-04" {
		t.Fatalf("expected 2027-01-04, got %s", got)
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	d := mustParse(t, "2026-01-31")
	if got := d.AddMonths(1).String(); got != "2026-02-28" {
		t.Fatalf("expected 2026-02-28, got %s", got)
	}
	if got := mustParse(t, "2026-11-15").AddMonths(3).String(); got != "2027-02-15" {
		t.Fatalf("expected 2027-02-15, got %s", got)
	}
	if got := d.AddMonths(-2).String(); got != "2025-11-30" {
		t.Fatalf("expected 2025-11-30, got %s", got)
	}
}

func TestWholeMonthsBetween(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2026-01-15", "2026-03-14", 1},
		{"2026-01-15", "2026-03-15", 2},
		{"2026-01-15", "2026-01-16", 0},
		{"2026-01-15", "2026-01-15", 0},
		{"2026-03-15", "2026-01-15", -2},
		{"2026-01-31", "2026-02-28", 1}, // clamped month end still counts
		{"2025-12-10", "2026-06-10", 6},
	}
	for _, tc := range cases {
		got := WholeMonthsBetween(mustParse(t, tc.a), mustParse(t, tc.b))
		if got != tc.want {
			t.Fatalf("WholeMonthsBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	a := mustParse(t, "2026-05-01")
	b := mustParse(t, "2026-05-02")
	if !a.Before(b) || b.Before(a) || !b.After(a) {
		t.Fatal("ordering broken")
	}
	if a.Compare(a) != 0 {
		t.Fatal("expected equal dates to compare 0")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := mustParse(t, "2026-06-13")
	raw, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `"2026-06-13"` {
		t.Fatalf("unexpected JSON: %s", raw)
	}
	var back Date
	if err := back.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back != d {
		t.Fatalf("round trip mismatch: %v", back)
	}
}
