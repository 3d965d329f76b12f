package guard

import (
	"errors"
	"time"

	"github.com/smallbiznis/agencydesk/internal/revenue/aggregator"
)

var (
	ErrPeriodNotStarted = errors.New("commission_period_not_started")
	ErrPeriodSettled    = errors.New("commission_period_settled")
)

// EnsureAssignmentNeedsSweep rejects assignments whose figures cannot change
// on a background recompute: the period has not begun, or it has ended and
// was already recomputed after its end. The end date covers its whole day,
// the same way revenue for the period is summed.
func EnsureAssignmentNeedsSweep(start, end time.Time, recomputedAt *time.Time, now time.Time) error {
	if now.Before(start) {
		return ErrPeriodNotStarted
	}
	if end.IsZero() {
		return nil
	}
	_, to := aggregator.DayBounds(time.Time{}, end)
	if now.After(to) && recomputedAt != nil && recomputedAt.After(to) {
		return ErrPeriodSettled
	}
	return nil
}
