package hos_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
)

func simulate(t *testing.T, hours, cycleUsed float64, history hos.History) *hos.Schedule {
	t.Helper()
	sched, err := hos.NewSimulator(nil).Simulate(hos.TripParameters{
		TripID:           "trip-1",
		Driver:           driver708,
		CurrentLocation:  domain.Location{Name: "Chicago, IL"},
		PickupLocation:   domain.Location{Name: "Joliet, IL"},
		DropoffLocation:  domain.Location{Name: "Dallas, TX"},
		CurrentCycleUsed: cycleUsed,
		PlannedStart:     at(day0, 9, 30),
		Route:            routeOfHours(hours),
	}, history)
	if err != nil {
		t.Fatalf("Simulate(%v) failed: %v", hours, err)
	}
	return sched
}

func assertWellFormed(t *testing.T, sched *hos.Schedule) {
	t.Helper()
	for i, log := range sched.Days {
		if !hos.Gapless(log) {
			t.Errorf("day %d is not gapless 00:00-24:00", i)
		}
		if !hos.AggregatesConsistent(log) {
			t.Errorf("day %d aggregates are inconsistent", i)
		}
		if log.TotalDrive > 11*time.Hour {
			t.Errorf("day %d drives %v", i, log.TotalDrive)
		}
		if len(log.Violations) != 0 {
			t.Errorf("day %d has violations: %+v", i, log.Violations)
		}
		if !log.LogDate.Equal(day0.AddDate(0, 0, i)) {
			t.Errorf("day %d dated %v", i, log.LogDate)
		}
	}
	if len(sched.Violations) != 0 {
		t.Errorf("expected zero violations, got %d", len(sched.Violations))
	}
}

func totalDriving(sched *hos.Schedule) time.Duration {
	var d time.Duration
	for _, log := range sched.Days {
		d += log.TotalDrive
	}
	return d
}

func TestSimulate_ShortTripsFitOneDay(t *testing.T) {
	t.Parallel()

	for _, hours := range []float64{0.25, 1, 4.5, 7, 9.9, 10.99, 11} {
		sched := simulate(t, hours, 0, hos.History{})

		if len(sched.Days) != 1 {
			t.Errorf("hours=%v: expected 1 day, got %d", hours, len(sched.Days))
			continue
		}
		assertWellFormed(t, sched)
	}
}

func TestSimulate_DayCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hours float64
		days  int
	}{
		{hours: 0, days: 1},
		{hours: 11.5, days: 2},
		{hours: 22, days: 2},
		{hours: 25, days: 3},
		{hours: 33, days: 3},
		{hours: 34, days: 4},
	}

	for _, tt := range tests {
		sched := simulate(t, tt.hours, 0, hos.History{})

		if len(sched.Days) != tt.days {
			t.Errorf("hours=%v: expected %d days, got %d", tt.hours, tt.days, len(sched.Days))
		}
		assertWellFormed(t, sched)
	}
}

func TestSimulate_TwentyTwoHourExample(t *testing.T) {
	t.Parallel()

	sched := simulate(t, 22, 0, hos.History{})

	if len(sched.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(sched.Days))
	}
	assertWellFormed(t, sched)

	first := drivingBlocks(sched.Days[0])
	if len(first) != 2 || first[0] != 7*time.Hour || first[1] > 3*time.Hour {
		t.Errorf("day 0: expected 7h block then <=3h block, got %v", first)
	}
	second := drivingBlocks(sched.Days[1])
	if len(second) == 0 || second[0] != 8*time.Hour {
		t.Errorf("day 1: expected an 8h block, got %v", second)
	}

	var sawBreak bool
	for i, iv := range sched.Days[0].Intervals {
		if iv.Status == domain.DutyStatusOffDuty && i > 0 && i < len(sched.Days[0].Intervals)-1 {
			d, _ := iv.Duration()
			sawBreak = d == 30*time.Minute
		}
	}
	if !sawBreak {
		t.Error("day 0: expected a 30-minute off-duty break between driving blocks")
	}

	if !sched.PlannedStart.Equal(at(day0, 6, 0)) {
		t.Errorf("expected start at 06:00, got %v", sched.PlannedStart)
	}
	if sched.PlannedEnd.IsZero() || !sched.PlannedEnd.After(sched.Days[1].LogDate) {
		t.Errorf("expected planned end on day 1, got %v", sched.PlannedEnd)
	}
}

func TestSimulate_DaySequence(t *testing.T) {
	t.Parallel()

	sched := simulate(t, 5, 0, hos.History{})
	log := sched.Days[0]

	want := []struct {
		status domain.DutyStatus
		notes  string
	}{
		{domain.DutyStatusOffDuty, "Off duty"},
		{domain.DutyStatusOnDutyNotDriving, "Pre-trip inspection"},
		{domain.DutyStatusOnDutyNotDriving, "Pickup"},
		{domain.DutyStatusDriving, "Driving"},
		{domain.DutyStatusOnDutyNotDriving, "Dropoff"},
		{domain.DutyStatusOnDutyNotDriving, "Post-trip inspection"},
		{domain.DutyStatusOffDuty, "Off duty"},
	}
	if len(log.Intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d", len(want), len(log.Intervals))
	}
	for i, w := range want {
		iv := log.Intervals[i]
		if iv.Status != w.status || iv.Notes != w.notes {
			t.Errorf("interval %d: expected %s %q, got %s %q", i, w.status, w.notes, iv.Status, iv.Notes)
		}
		if iv.Origin != domain.IntervalOriginAutomatic {
			t.Errorf("interval %d: expected automatic origin", i)
		}
		if iv.LogID != log.ID {
			t.Errorf("interval %d: expected log id %s, got %s", i, log.ID, iv.LogID)
		}
	}
	if log.Intervals[1].Location.Name != "Chicago, IL" || log.Intervals[4].Location.Name != "Dallas, TX" {
		t.Error("expected current and dropoff locations on the inspection and dropoff intervals")
	}
	if log.TripID != "trip-1" {
		t.Errorf("expected trip id on the log, got %q", log.TripID)
	}
}

func TestSimulate_NeverViolates(t *testing.T) {
	t.Parallel()

	for hours := 0.0; hours <= 120; hours += 3.7 {
		for _, used := range []float64{0, 35, 62.5, 70} {
			sched := simulate(t, hours, used, hos.History{})
			assertWellFormed(t, sched)

			allocated := totalDriving(sched).Hours()
			if allocated > hours+1e-6 {
				t.Errorf("hours=%v used=%v: allocated %v driving hours", hours, used, allocated)
			}
		}
	}
}

func TestSimulate_HighCycleInsertsRestDays(t *testing.T) {
	t.Parallel()

	sched := simulate(t, 10, 70, hos.History{})

	if sched.RestDaysInserted == 0 {
		t.Fatal("expected rest days before any work at the cycle limit")
	}
	assertWellFormed(t, sched)
	if len(sched.Days) != sched.RestDaysInserted+1 {
		t.Errorf("expected %d rest days then one work day, got %d days", sched.RestDaysInserted, len(sched.Days))
	}
	if sched.Days[0].TotalDuty != 0 {
		t.Errorf("expected first day off duty, got %v on duty", sched.Days[0].TotalDuty)
	}
}

func TestSimulate_ReplacesStoredDays(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	stale := dutyDay(t, m, "stale", day0, 1, 23)
	prev := dutyDay(t, m, "prev", day0.AddDate(0, 0, -1), 6, 16)

	sched := simulate(t, 20, 10, hos.NewHistory(stale, prev))

	assertWellFormed(t, sched)
}

func TestSimulate_LateShiftDelaysFirstStart(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	prev := dutyDay(t, m, "prev", day0.AddDate(0, 0, -1), 12, 23)

	sched := simulate(t, 5, 0, hos.NewHistory(prev))

	assertWellFormed(t, sched)
	if countType(sched.Violations, domain.ViolationDailyRest) != 0 {
		t.Errorf("expected no daily_rest violation, got %+v", sched.Violations)
	}
	if want := at(day0, 9, 0); !sched.PlannedStart.Equal(want) {
		t.Errorf("expected start after a 10h rest at %v, got %v", want, sched.PlannedStart)
	}
	pre := sched.Days[0].Intervals[1]
	if pre.Notes != "Pre-trip inspection" || !pre.Start.Equal(at(day0, 9, 0)) {
		t.Errorf("expected pre-trip at 09:00, got %q at %v", pre.Notes, pre.Start)
	}
}

func TestSimulate_LateShiftMultiDay(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	prev := dutyDay(t, m, "prev", day0.AddDate(0, 0, -1), 13, 23)

	for _, hours := range []float64{11, 22, 25, 40} {
		sched := simulate(t, hours, 0, hos.NewHistory(prev))
		assertWellFormed(t, sched)
	}
}

func TestSimulate_Errors(t *testing.T) {
	t.Parallel()

	sim := hos.NewSimulator(nil)
	base := hos.TripParameters{Driver: driver708, PlannedStart: day0, Route: routeOfHours(10)}

	noRoute := base
	noRoute.Route = nil
	if _, err := sim.Simulate(noRoute, hos.History{}); !errors.Is(err, hos.ErrMissingRoute) {
		t.Errorf("expected ErrMissingRoute, got %v", err)
	}

	for _, used := range []float64{-1, 70.5, math.NaN()} {
		p := base
		p.CurrentCycleUsed = used
		if _, err := sim.Simulate(p, hos.History{}); !errors.Is(err, hos.ErrValidation) {
			t.Errorf("cycle used %v: expected ErrValidation, got %v", used, err)
		}
	}

	for _, hours := range []float64{-2, math.NaN(), math.Inf(1), 10000} {
		p := base
		p.Route = lineRoute{miles: 100, hours: hours}
		if _, err := sim.Simulate(p, hos.History{}); !errors.Is(err, hos.ErrValidation) {
			t.Errorf("hours %v: expected ErrValidation, got %v", hours, err)
		}
	}
}

func TestSimulate_TripDayClock(t *testing.T) {
	t.Parallel()

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	sched, err := hos.NewSimulator(nil).Simulate(hos.TripParameters{
		Driver:       driver708,
		PlannedStart: time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC), // Evening of March 11 in Chicago
		Location:     chicago,
		Route:        routeOfHours(4),
	}, hos.History{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if got := domain.DateKey(sched.Days[0].LogDate); got != "2025-03-11" {
		t.Errorf("expected the Chicago calendar date, got %s", got)
	}
	if h := sched.PlannedStart.In(chicago).Hour(); h != 6 {
		t.Errorf("expected 06:00 local start, got %d", h)
	}
	if !hos.Gapless(sched.Days[0]) {
		t.Error("expected gapless local day")
	}
}

func TestSimulate_StartsAtLocalSixOnDSTChange(t *testing.T) {
	t.Parallel()

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// Clocks in Chicago spring forward at 02:00 on March 9, 2025.
	sched, err := hos.NewSimulator(nil).Simulate(hos.TripParameters{
		Driver:       driver708,
		PlannedStart: time.Date(2025, 3, 9, 0, 0, 0, 0, chicago),
		Location:     chicago,
		Route:        routeOfHours(4),
	}, hos.History{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	local := sched.PlannedStart.In(chicago)
	if local.Hour() != 6 || local.Minute() != 0 {
		t.Errorf("expected 06:00 local start, got %s", local.Format("15:04"))
	}
	if pre := sched.Days[0].Intervals[1]; !pre.Start.Equal(sched.PlannedStart) {
		t.Errorf("expected pre-trip at the planned start, got %v", pre.Start)
	}
	if !hos.Gapless(sched.Days[0]) {
		t.Error("expected gapless local day")
	}
}
