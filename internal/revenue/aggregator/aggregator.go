// Package aggregator folds revenue records into per-source totals.
package aggregator

import (
	"time"

	"github.com/shopspring/decimal"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
)

// Aggregate sums the records of agentID whose OccurredAt lies in
// [start, end]. A zero start or end leaves that side open. Records with an
// unknown source or a negative amount are skipped.
func Aggregate(records []revenuedomain.RevenueRecord, agentID string, start, end time.Time) revenuedomain.Totals {
	totals := revenuedomain.Totals{
		Sales:              decimal.Zero,
		Rental:             decimal.Zero,
		PropertyManagement: decimal.Zero,
	}

	for _, r := range records {
		if r.AgentID != agentID || !InPeriod(r.OccurredAt, start, end) {
			continue
		}
		if r.Amount.IsNegative() {
			continue
		}
		switch r.Source {
		case revenuedomain.SourceSale:
			totals.Sales = totals.Sales.Add(r.Amount)
		case revenuedomain.SourceRental:
			totals.Rental = totals.Rental.Add(r.Amount)
		case revenuedomain.SourcePropertyManagement:
			totals.PropertyManagement = totals.PropertyManagement.Add(r.Amount)
		}
	}

	totals.Total = totals.Sales.Add(totals.Rental).Add(totals.PropertyManagement)
	return totals
}

// InPeriod reports whether at lies in [start, end] with zero bounds open.
func InPeriod(at, start, end time.Time) bool {
	if !start.IsZero() && at.Before(start) {
		return false
	}
	if !end.IsZero() && at.After(end) {
		return false
	}
	return true
}

// DayBounds widens a date range to whole UTC days: start of the first day
// through the last nanosecond of the last day.
func DayBounds(start, end time.Time) (time.Time, time.Time) {
	var from, to time.Time
	if !start.IsZero() {
		s := start.UTC()
		from = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	}
	if !end.IsZero() {
		e := end.UTC()
		to = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to
}
