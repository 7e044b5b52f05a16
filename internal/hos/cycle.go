package hos

import (
	"time"

	"trucklog/internal/domain"
)

// CycleCalculator sums on-duty hours over a driver's rolling cycle window.
type CycleCalculator struct{}

// HoursUsed returns on-duty hours in the window [asOf-(window-1), asOf],
// inclusive, where window is 8 days for 70/8 and 7 days for 60/7.
// Only closed driving and on_duty_not_driving intervals count.
func (CycleCalculator) HoursUsed(cycle domain.CycleType, history History, asOf time.Time) float64 {
	window := cycle.WindowDays()
	first := asOf.AddDate(0, 0, -(window - 1))

	baseline, hasBaseline := history.Baseline()
	var total time.Duration
	for i := 0; i < window; i++ {
		day := first.AddDate(0, 0, i)
		if hasBaseline && !dateAfter(day, baseline.Date) {
			continue
		}
		if log := history.Get(day); log != nil {
			total += ComputeTotals(log).Duty
		}
	}

	hours := total.Hours()
	if hasBaseline && !dateAfter(first, baseline.Date) && !dateAfter(baseline.Date, asOf) {
		hours += baseline.Hours
	}
	return hours
}

// dateAfter compares calendar dates, ignoring clock time.
func dateAfter(a, b time.Time) bool {
	return domain.DateKey(a) > domain.DateKey(b)
}
