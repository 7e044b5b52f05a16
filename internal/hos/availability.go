package hos

import (
	"math"
	"time"

	"trucklog/internal/domain"
)

// Status is a driver's remaining hours at an instant.
type Status struct {
	At                    time.Time
	CycleType             domain.CycleType
	DailyDrivingUsed      float64
	DailyDrivingAvailable float64
	DailyDutyUsed         float64
	DailyDutyAvailable    float64
	CycleUsed             float64
	CycleAvailable        float64
	CycleLimit            float64
	NeedsBreakSoon        bool
	NeedsDailyRest        bool
	CurrentStatus         domain.DutyStatus
}

// Availability computes remaining driving, duty window, and cycle hours at
// the given instant. An open interval counts up to at.
func Availability(driver *domain.Driver, history History, at time.Time, loc *time.Location) Status {
	cycle := driver.EffectiveCycle()
	st := Status{At: at, CycleType: cycle, CycleLimit: cycle.LimitHours()}

	today := history.Get(domain.StartOfDay(at, loc))
	var view *domain.DailyLog
	if today != nil {
		view = snapshotAt(today, at)
		t := ComputeTotals(view)
		st.DailyDrivingUsed = t.Drive.Hours()
		if first, ok := firstDutyStart(view); ok && at.After(first) {
			st.DailyDutyUsed = at.Sub(first).Hours()
		}
		if last := today.LastInterval(); last != nil {
			st.CurrentStatus = last.Status
		}
		history = history.With(view)
	}

	st.CycleUsed = CycleCalculator{}.HoursUsed(cycle, history, domain.StartOfDay(at, loc))
	st.DailyDrivingAvailable = math.Max(0, MaxDrivingHours-st.DailyDrivingUsed)
	st.DailyDutyAvailable = math.Max(0, MaxDutyWindowHours-st.DailyDutyUsed)
	st.CycleAvailable = math.Max(0, st.CycleLimit-st.CycleUsed)
	st.NeedsBreakSoon = st.DailyDrivingUsed >= BreakSoonThreshold
	st.NeedsDailyRest = st.DailyDutyUsed >= DailyRestThreshold

	st.DailyDrivingUsed = round2(st.DailyDrivingUsed)
	st.DailyDutyUsed = round2(st.DailyDutyUsed)
	st.CycleUsed = round2(st.CycleUsed)
	st.DailyDrivingAvailable = round2(st.DailyDrivingAvailable)
	st.DailyDutyAvailable = round2(st.DailyDutyAvailable)
	st.CycleAvailable = round2(st.CycleAvailable)
	return st
}

// snapshotAt copies a log with its open interval closed at the given instant.
func snapshotAt(log *domain.DailyLog, at time.Time) *domain.DailyLog {
	cp := *log
	cp.Intervals = make([]*domain.DutyInterval, 0, len(log.Intervals))
	for _, iv := range log.Intervals {
		c := *iv
		if c.IsOpen() && at.After(c.Start) {
			c.End = at
		}
		cp.Intervals = append(cp.Intervals, &c)
	}
	return &cp
}
