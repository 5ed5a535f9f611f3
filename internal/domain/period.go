/**
 * @description
 * Calendar-period utilities. A Period is a single calendar month with a
 * canonical "YYYY-MM" label; a FiscalPeriod wraps a Period with an
 * OPEN/CLOSED status. Closing is a one-way transition that freezes
 * which transactions are eligible for that period's trial balance.
 *
 * @dependencies
 * - fmt, time: Standard Go libraries.
 */

package domain

import (
	"fmt"
	"time"
)

const (
	minPeriodYear = 1990
	maxPeriodYear = 2100
)

// Period is a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a canonical "YYYY-MM" label. Malformed or
// out-of-range labels fail with ErrInvalidPeriod.
func ParsePeriod(label string) (Period, error) {
	var year, month int
	if _, err := fmt.Sscanf(label, "%4d-%2d", &year, &month); err != nil {
		return Period{}, ErrInvalidPeriod
	}
	p := Period{Year: year, Month: time.Month(month)}
	if label != p.Label() {
		return Period{}, ErrInvalidPeriod
	}
	if month < 1 || month > 12 || year < minPeriodYear || year > maxPeriodYear {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// Label renders the canonical "YYYY-MM" form.
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	return PeriodOf(p.End())
}

// Contains reports whether the instant falls inside the period.
func (p Period) Contains(t time.Time) bool {
	u := t.UTC()
	return !u.Before(p.Start()) && u.Before(p.End())
}

// Before reports strict chronological ordering between periods.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// PeriodStatus is the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod is an accounting window with an open/closed lifecycle.
type FiscalPeriod struct {
	Period   Period       `json:"period"`
	Status   PeriodStatus `json:"status"`
	ClosedAt *time.Time   `json:"closed_at,omitempty"`
}

// Close marks the period CLOSED. Closing an already-closed period is a
// no-op; there is no CLOSED -> OPEN transition.
func (f *FiscalPeriod) Close(at time.Time) {
	if f.Status == PeriodClosed {
		return
	}
	f.Status = PeriodClosed
	closedAt := at.UTC()
	f.ClosedAt = &closedAt
}

// AcceptsPostings reports whether new transactions may still be dated
// inside this period.
func (f *FiscalPeriod) AcceptsPostings() bool {
	return f.Status == PeriodOpen
}
