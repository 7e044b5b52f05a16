package hos_test

import (
	"testing"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
)

var day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newLog(t *testing.T, id string, day time.Time) *domain.DailyLog {
	t.Helper()
	return domain.NewDailyLog(id, "driver-1", day, time.UTC)
}

// span is a closed interval given as clock times on the log's day.
type span struct {
	status       domain.DutyStatus
	fromH, fromM int
	toH, toM     int
}

// buildLog writes closed intervals through the mutator without detection.
func buildLog(t *testing.T, m *hos.Mutator, id string, day time.Time, spans ...span) *domain.DailyLog {
	t.Helper()
	log := newLog(t, id, day)
	for _, s := range spans {
		_, err := m.AppendClosed(log, hos.ClosedInput{
			Status: s.status,
			Start:  at(day, s.fromH, s.fromM),
			End:    at(day, s.toH, s.toM),
		})
		if err != nil {
			t.Fatalf("AppendClosed(%v) failed: %v", s, err)
		}
	}
	return log
}

// dutyDay is a log with a single on-duty block from..to.
func dutyDay(t *testing.T, m *hos.Mutator, id string, day time.Time, fromH, toH int) *domain.DailyLog {
	t.Helper()
	return buildLog(t, m, id, day, span{domain.DutyStatusOnDutyNotDriving, fromH, 0, toH, 0})
}

var driver708 = &domain.Driver{ID: "driver-1", CycleType: domain.CycleType70Hour8Day}
var driver607 = &domain.Driver{ID: "driver-1", CycleType: domain.CycleType60Hour7Day}

// lineRoute is a straight route with linear interpolation between two points.
type lineRoute struct {
	miles, hours float64
	from, to     domain.Coordinates
}

func (r lineRoute) DistanceMiles() float64 { return r.miles }
func (r lineRoute) DurationHours() float64 { return r.hours }
func (r lineRoute) PositionAt(miles float64) domain.Coordinates {
	if r.miles <= 0 {
		return r.from
	}
	f := miles / r.miles
	if f > 1 {
		f = 1
	}
	return domain.Coordinates{
		Lat: r.from.Lat + (r.to.Lat-r.from.Lat)*f,
		Lng: r.from.Lng + (r.to.Lng-r.from.Lng)*f,
	}
}

func routeOfHours(h float64) lineRoute {
	return lineRoute{
		miles: h * hos.AverageSpeedMPH,
		hours: h,
		from:  domain.Coordinates{Lat: 41.88, Lng: -87.63},
		to:    domain.Coordinates{Lat: 32.78, Lng: -96.80},
	}
}

func countType(vs []*domain.Violation, typ domain.ViolationType) int {
	n := 0
	for _, v := range vs {
		if v.Type == typ {
			n++
		}
	}
	return n
}

func drivingBlocks(log *domain.DailyLog) []time.Duration {
	var out []time.Duration
	for _, iv := range log.Intervals {
		if iv.Status == domain.DutyStatusDriving {
			d, _ := iv.Duration()
			out = append(out, d)
		}
	}
	return out
}
