package hos

import (
	"math"
	"time"

	"github.com/google/uuid"

	"trucklog/internal/domain"
)

const (
	// MaxTripHours bounds the driving hours a single plan may allocate.
	MaxTripHours = 330.0
	// maxSimulatedDays bounds the simulation loop, rest days included.
	maxSimulatedDays = 90
	epsilonHours     = 1e-9
)

// RouteResult is the routing collaborator's answer for a trip.
type RouteResult interface {
	DistanceMiles() float64
	DurationHours() float64
	PositionAt(miles float64) domain.Coordinates
}

// TripParameters is the immutable input to a simulation.
type TripParameters struct {
	TripID           string
	Driver           *domain.Driver
	CurrentLocation  domain.Location
	PickupLocation   domain.Location
	DropoffLocation  domain.Location
	CurrentCycleUsed float64
	PlannedStart     time.Time
	Location         *time.Location // Trip-day clock; UTC when nil
	Route            RouteResult
}

func (p TripParameters) clock() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Schedule is the simulator's output: one daily log per calendar day.
type Schedule struct {
	Days             []*domain.DailyLog
	DrivingHours     float64
	PlannedStart     time.Time
	PlannedEnd       time.Time
	Violations       []*domain.Violation
	RestDaysInserted int
}

// Simulator turns trip parameters into a legally paced multi-day schedule.
type Simulator struct {
	mutator *Mutator
	cycle   CycleCalculator
	newID   func() string
}

// NewSimulator creates a simulator that writes through m.
func NewSimulator(m *Mutator) *Simulator {
	if m == nil {
		m = NewMutator(nil)
	}
	return &Simulator{mutator: m, newID: uuid.NewString}
}

// Simulate builds one daily log per day until the route's driving hours are
// allocated. history holds the driver's stored logs; days the simulation
// generates replace any stored log on the same date. The driver's reported
// cycle usage is applied as of the day before the planned start.
//
// Each day opens off duty until 06:00 and closes off duty at midnight. A day
// whose work would push the cycle over its limit is generated as a full
// off-duty day instead.
func (s *Simulator) Simulate(p TripParameters, history History) (*Schedule, error) {
	if p.Route == nil {
		return nil, ErrMissingRoute
	}
	if err := ValidateCycleUsed(p.CurrentCycleUsed); err != nil {
		return nil, err
	}
	total := p.Route.DurationHours()
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 || total > MaxTripHours {
		return nil, &ValidationError{Field: "total_trip_hours", Value: total, Reason: "must be between 0 and 330"}
	}

	loc := p.clock()
	start := domain.StartOfDay(p.PlannedStart, loc)
	cycle := p.Driver.EffectiveCycle()
	hist := history.WithBaseline(CycleBaseline{Hours: p.CurrentCycleUsed, Date: start.AddDate(0, 0, -1)})

	sched := &Schedule{DrivingHours: total}
	b := &dayBuilder{sim: s, params: p, speed: averageSpeed(p.Route)}
	allocated := 0.0
	firstWorkDay := true

	for d := 0; ; d++ {
		if d >= maxSimulatedDays {
			return nil, &ValidationError{Field: "total_trip_hours", Value: total, Reason: "schedule does not fit the simulation horizon"}
		}
		date := start.AddDate(0, 0, d)
		log := domain.NewDailyLog(s.newID(), driverID(p.Driver), date, loc)
		log.TripID = p.TripID

		used := s.cycle.HoursUsed(cycle, hist, date)
		capacity := math.Min(MaxDrivingHours, cycle.LimitHours()-used-(2*InspectionDuration).Hours())
		remaining := total - allocated
		final := remaining <= capacity+epsilonHours

		need := 1.0
		if firstWorkDay && final {
			need = (PickupDuration + DropoffDuration).Hours()
		}

		var err error
		worked := capacity+epsilonHours >= need
		if !worked {
			err = b.restDay(log)
			sched.RestDaysInserted++
		} else {
			budget := math.Min(capacity, remaining)
			dayStart := workDayStart(log, hist.Previous(log), loc)
			if firstWorkDay {
				sched.PlannedStart = dayStart
			}
			err = b.workDay(log, dayStart, budget, firstWorkDay, final)
			allocated += budget
			firstWorkDay = false
		}
		if err != nil {
			return nil, err
		}

		sched.Violations = append(sched.Violations, s.mutator.Finalize(log, DetectInput{Driver: p.Driver, History: hist})...)
		hist = hist.With(log)
		sched.Days = append(sched.Days, log)

		if worked && final {
			break
		}
	}

	sched.PlannedEnd = b.dropoffEnd
	return sched, nil
}

type dayBuilder struct {
	sim        *Simulator
	params     TripParameters
	speed      float64
	driven     float64 // Hours driven so far across the trip
	dropoffEnd time.Time
	log        *domain.DailyLog
	cursor     time.Time
}

func (b *dayBuilder) restDay(log *domain.DailyLog) error {
	_, err := b.sim.mutator.AppendClosed(log, ClosedInput{
		Status: domain.DutyStatusOffDuty,
		Start:  log.LogDate,
		End:    log.DayEnd(),
		Notes:  "Off duty (cycle recovery)",
	})
	return err
}

// workDayStart is 06:00 on the log's local date, pushed back until the
// previous day's last duty interval is followed by a full daily rest. Since a
// previous day's duty ends by midnight, the start is never later than 10:00.
func workDayStart(log, prev *domain.DailyLog, loc *time.Location) time.Time {
	y, m, d := log.LogDate.In(loc).Date()
	start := time.Date(y, m, d, tripDayStartHour, 0, 0, 0, loc)
	if prev == nil {
		return start
	}
	if end, ok := lastDutyEnd(prev); ok {
		if rested := end.Add(DailyRestDuration); rested.After(start) {
			return rested
		}
	}
	return start
}

// workDay emits the fixed sequence: off duty to the day's start, pre-trip,
// pickup on the first working day, up to two driving blocks split by a meal
// break, dropoff on the final day, post-trip, and off duty to midnight. budget
// counts pickup and dropoff time.
func (b *dayBuilder) workDay(log *domain.DailyLog, start time.Time, budget float64, first, final bool) error {
	b.log = log
	b.cursor = start

	if _, err := b.sim.mutator.AppendClosed(log, ClosedInput{
		Status: domain.DutyStatusOffDuty, Start: log.LogDate, End: b.cursor, Notes: "Off duty",
	}); err != nil {
		return err
	}

	here := b.params.CurrentLocation
	if !first {
		here = b.positionAfter(b.driven, "En route")
	}
	if err := b.emit(domain.DutyStatusOnDutyNotDriving, InspectionDuration, here, "Pre-trip inspection"); err != nil {
		return err
	}

	if first {
		if err := b.emit(domain.DutyStatusOnDutyNotDriving, PickupDuration, b.params.PickupLocation, "Pickup"); err != nil {
			return err
		}
		budget -= PickupDuration.Hours()
	}

	reserve := 0.0
	if final {
		reserve = DropoffDuration.Hours()
	}
	block := laterDayDriveBlock
	if first {
		block = firstDayDriveBlock
	}

	drive1 := math.Max(0, math.Min(block, budget-reserve))
	if err := b.drive(drive1); err != nil {
		return err
	}
	left := budget - drive1
	if left-reserve > epsilonHours {
		if err := b.emit(domain.DutyStatusOffDuty, MealBreakDuration, b.positionAfter(b.driven, "Rest area"), "30-minute break"); err != nil {
			return err
		}
		if err := b.drive(math.Min(secondDriveBlockMax, left-reserve)); err != nil {
			return err
		}
	}

	if final {
		if err := b.emit(domain.DutyStatusOnDutyNotDriving, DropoffDuration, b.params.DropoffLocation, "Dropoff"); err != nil {
			return err
		}
		b.dropoffEnd = b.cursor
	}

	if err := b.emit(domain.DutyStatusOnDutyNotDriving, InspectionDuration, b.positionAfter(b.driven, "En route"), "Post-trip inspection"); err != nil {
		return err
	}
	_, err := b.sim.mutator.AppendClosed(log, ClosedInput{
		Status: domain.DutyStatusOffDuty, Start: b.cursor, End: log.DayEnd(), Notes: "Off duty",
	})
	return err
}

func (b *dayBuilder) drive(hours float64) error {
	d := hoursToDuration(hours)
	if d <= 0 {
		return nil
	}
	at := b.positionAfter(b.driven, "En route")
	b.driven += hours
	return b.emit(domain.DutyStatusDriving, d, at, "Driving")
}

func (b *dayBuilder) emit(status domain.DutyStatus, d time.Duration, loc domain.Location, notes string) error {
	end := b.cursor.Add(d)
	if _, err := b.sim.mutator.AppendClosed(b.log, ClosedInput{
		Status:   status,
		Start:    b.cursor,
		End:      end,
		Location: loc,
		Notes:    notes,
	}); err != nil {
		return err
	}
	b.cursor = end
	return nil
}

// positionAfter locates the truck after the given driving hours.
func (b *dayBuilder) positionAfter(hours float64, name string) domain.Location {
	miles := math.Min(hours*b.speed, b.params.Route.DistanceMiles())
	c := b.params.Route.PositionAt(miles)
	return domain.Location{Name: name, Coords: &c}
}

// averageSpeed is the route's miles per driving hour, falling back to 55 mph.
func averageSpeed(r RouteResult) float64 {
	if h := r.DurationHours(); h > 0 {
		return r.DistanceMiles() / h
	}
	return AverageSpeedMPH
}

func driverID(d *domain.Driver) string {
	if d == nil {
		return ""
	}
	return d.ID
}
