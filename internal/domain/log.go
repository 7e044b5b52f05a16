package domain

import "time"

// TimelineState is the open/close state of a DailyLog's interval sequence.
type TimelineState string

const (
	// TimelineAwaitingFirst means the log has no intervals yet.
	TimelineAwaitingFirst TimelineState = "awaiting_first"
	// TimelineHasOpenInterval means the most recent interval has no end.
	TimelineHasOpenInterval TimelineState = "has_open_interval"
	// TimelineSettled means every interval in the log is closed.
	TimelineSettled TimelineState = "settled"
)

// DailyLog is a driver's record of duty for one calendar day.
type DailyLog struct {
	ID        string
	DriverID  string
	TripID    string
	LogDate   time.Time // Midnight of the calendar day in the trip-day clock location
	VehicleID string

	Intervals []*DutyInterval
	State     TimelineState

	// Aggregates over closed intervals; kept in sync by the mutator.
	TotalDrive   time.Duration
	TotalDuty    time.Duration
	TotalOffDuty time.Duration
	TotalSleeper time.Duration

	HasDrivingViolation bool
	HasDutyViolation    bool
	Violations          []*Violation

	IsCertified bool
	CertifiedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateKey formats a calendar date the way logs are keyed.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Key returns the log's calendar date key.
func (l *DailyLog) Key() string {
	return DateKey(l.LogDate)
}

// DayEnd returns the midnight that ends the log's calendar day.
func (l *DailyLog) DayEnd() time.Time {
	return l.LogDate.AddDate(0, 0, 1)
}

// LastInterval returns the most recent interval or nil.
func (l *DailyLog) LastInterval() *DutyInterval {
	if len(l.Intervals) == 0 {
		return nil
	}
	return l.Intervals[len(l.Intervals)-1]
}

// OpenInterval returns the open interval, if the timeline has one.
func (l *DailyLog) OpenInterval() *DutyInterval {
	if l.State != TimelineHasOpenInterval {
		return nil
	}
	return l.LastInterval()
}

// RestoreState derives the timeline state from loaded intervals.
// Storage adapters call it once after hydrating a log.
func (l *DailyLog) RestoreState() {
	last := l.LastInterval()
	switch {
	case last == nil:
		l.State = TimelineAwaitingFirst
	case last.IsOpen():
		l.State = TimelineHasOpenInterval
	default:
		l.State = TimelineSettled
	}
}

// UnresolvedViolations returns violations that have not been resolved.
func (l *DailyLog) UnresolvedViolations() []*Violation {
	var out []*Violation
	for _, v := range l.Violations {
		if !v.Resolved {
			out = append(out, v)
		}
	}
	return out
}

// NewDailyLog builds an empty log for a driver-day. date is truncated to midnight in loc.
func NewDailyLog(id, driverID string, date time.Time, loc *time.Location) *DailyLog {
	return &DailyLog{
		ID:       id,
		DriverID: driverID,
		LogDate:  StartOfDay(date, loc),
		State:    TimelineAwaitingFirst,
	}
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
