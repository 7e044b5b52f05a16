package hos

import (
	"time"

	"trucklog/internal/domain"
)

// Totals are per-status durations summed over a log's closed intervals.
type Totals struct {
	Drive   time.Duration
	Duty    time.Duration
	OffDuty time.Duration
	Sleeper time.Duration
}

// ComputeTotals sums the closed intervals of a log by status.
func ComputeTotals(log *domain.DailyLog) Totals {
	var t Totals
	for _, iv := range log.Intervals {
		d, ok := iv.Duration()
		if !ok {
			continue
		}
		switch iv.Status {
		case domain.DutyStatusOffDuty:
			t.OffDuty += d
		case domain.DutyStatusSleeperBerth:
			t.Sleeper += d
		}
		if iv.Status.CountsTowardDriving() {
			t.Drive += d
		}
		if iv.Status.CountsTowardDuty() {
			t.Duty += d
		}
	}
	return t
}

// Recompute writes the closed-interval totals back into the log's cached aggregates.
func Recompute(log *domain.DailyLog) {
	t := ComputeTotals(log)
	log.TotalDrive = t.Drive
	log.TotalDuty = t.Duty
	log.TotalOffDuty = t.OffDuty
	log.TotalSleeper = t.Sleeper
}

// AggregatesConsistent reports whether the cached aggregates match a fresh recomputation.
func AggregatesConsistent(log *domain.DailyLog) bool {
	t := ComputeTotals(log)
	return log.TotalDrive == t.Drive &&
		log.TotalDuty == t.Duty &&
		log.TotalOffDuty == t.OffDuty &&
		log.TotalSleeper == t.Sleeper
}

// Gapless reports whether the log's intervals are closed, contiguous, and cover
// its calendar day from midnight to midnight.
func Gapless(log *domain.DailyLog) bool {
	if len(log.Intervals) == 0 {
		return false
	}
	cursor := log.LogDate
	for _, iv := range log.Intervals {
		if iv.IsOpen() || !iv.Start.Equal(cursor) || !iv.End.After(iv.Start) {
			return false
		}
		cursor = iv.End
	}
	return cursor.Equal(log.DayEnd())
}

func closedDutyIntervals(log *domain.DailyLog) []*domain.DutyInterval {
	var out []*domain.DutyInterval
	for _, iv := range log.Intervals {
		if iv.Status.CountsTowardDuty() && !iv.IsOpen() {
			out = append(out, iv)
		}
	}
	return out
}

// firstDutyStart returns the start of the first on-duty interval, open or closed.
func firstDutyStart(log *domain.DailyLog) (time.Time, bool) {
	for _, iv := range log.Intervals {
		if iv.Status.CountsTowardDuty() {
			return iv.Start, true
		}
	}
	return time.Time{}, false
}

// lastDutyEnd returns the latest end among closed on-duty intervals.
func lastDutyEnd(log *domain.DailyLog) (time.Time, bool) {
	var end time.Time
	for _, iv := range closedDutyIntervals(log) {
		if iv.End.After(end) {
			end = iv.End
		}
	}
	return end, !end.IsZero()
}
