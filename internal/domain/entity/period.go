package entity

import (
	"fmt"
	"time"
)

// Period is a reporting month. Trip files are published and analysed one month at a time.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (expected YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// IsZero reports whether the period was never set.
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// String formats the period as "YYYY-MM".
func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// Name returns a human label such as "January 2024".
func (p Period) Name() string { return fmt.Sprintf("%s %d", p.Month, p.Year) }

// Start is the first instant of the month (UTC).
func (p Period) Start() time.Time { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }

// End is the first instant of the following month (exclusive bound).
func (p Period) End() time.Time { return p.Start().AddDate(0, 1, 0) }

// Contains reports whether t falls in the same calendar year and month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Days returns the first instant of every day in the month.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start(); d.Before(p.End()); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
