// Package dates provides timezone-naive calendar dates.
//
// Wedding dates, due dates, and charge dates in this system are business
// calendar days, not instants: "June 14" means June 14 on the venue's
// operating calendar regardless of the server's timezone. Parsing an ISO
// date into a time.Time and reading its weekday back is where timezone
// rollover bugs come from, so every date computation in the pricing and
// payment-plan code goes through this package instead.
package dates

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time-of-day and no timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Parse parses an ISO calendar date (YYYY-MM-DD).
func Parse(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// FromTime reads the calendar fields of t in its own location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current date on the local calendar.
func Today() Date {
	return FromTime(time.Now())
}

// anchor pins the date to noon UTC so weekday and date arithmetic can never
// roll across a day boundary.
func (d Date) anchor() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Weekday() time.Weekday {
	return d.anchor().Weekday()
}

func (d Date) AddDays(n int) Date {
	return FromTime(d.anchor().AddDate(0, 0, n))
}

// AddMonths advances by whole calendar months, clamping to the last day of
// the target month (Jan 31 + 1 month = Feb 28/29, not Mar 2/3).
func (d Date) AddMonths(n int) Date {
	y, m := d.Year, int(d.Month)+n
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}
	day := d.Day
	if last := daysIn(y, time.Month(m)); day > last {
		day = last
	}
	return Date{Year: y, Month: time.Month(m), Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// Compare returns -1, 0, or 1 as d is before, equal to, or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// WholeMonthsBetween counts complete calendar months from a to b. The count
// only includes a month once the same day-of-month has been reached (Jan 15
// to Mar 14 is 1, Jan 15 to Mar 15 is 2). Negative when b precedes a.
func WholeMonthsBetween(a, b Date) int {
	if b.Before(a) {
		return -WholeMonthsBetween(b, a)
	}
	months := (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
	if b.Day < a.Day {
		// End-of-month clamp: Jan 31 -> Feb 28 still counts as a full month.
		if b.Day < daysIn(b.Year, b.Month) {
			months--
		}
	}
	if months < 0 {
		return 0
	}
	return months
}

// String formats the date as ISO YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as an ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
