package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/metrics"
	"trucklog/internal/redis"
	"trucklog/internal/repository"
	"trucklog/internal/routing"
)

// planLockTTL covers routing, simulation, and the multi-day write.
const planLockTTL = 30 * time.Second

// RoutePlanner resolves trip stops into a route.
type RoutePlanner interface {
	Plan(ctx context.Context, stops ...domain.Location) (*routing.Route, []domain.Location, error)
}

// TripService handles trip planning and lifecycle.
type TripService struct {
	tx         repository.Transactor
	tripRepo   repository.TripRepository
	driverRepo repository.DriverRepository
	logRepo    repository.LogRepository
	lockStore  redis.LockStoreInterface
	cacheStore redis.CacheStoreInterface
	planner    RoutePlanner
	simulator  *hos.Simulator
	stops      hos.RestStopPlanner
	mutator    *hos.Mutator
	opts       HOSOptions
}

// NewTripService creates a new TripService.
func NewTripService(
	tx repository.Transactor,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	logRepo repository.LogRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	planner RoutePlanner,
	mutator *hos.Mutator,
	opts HOSOptions,
) *TripService {
	return &TripService{
		tx:         tx,
		tripRepo:   tripRepo,
		driverRepo: driverRepo,
		logRepo:    logRepo,
		lockStore:  lockStore,
		cacheStore: cacheStore,
		planner:    planner,
		simulator:  hos.NewSimulator(mutator),
		mutator:    mutator,
		opts:       opts.withDefaults(),
	}
}

// PlanTripRequest contains the parameters for planning a trip.
type PlanTripRequest struct {
	DriverID         string
	Name             string
	CurrentLocation  domain.Location
	PickupLocation   domain.Location
	DropoffLocation  domain.Location
	CurrentCycleUsed float64
	PlannedStart     time.Time // Now when zero
}

// PlanTripResult contains the planned trip and its generated logs.
type PlanTripResult struct {
	Trip             *domain.Trip
	Days             []*domain.DailyLog
	Violations       []*domain.Violation
	RouteSource      routing.Source
	RestDaysInserted int
}

// PlanTrip routes the trip, simulates a compliant schedule, and stores the
// trip with one daily log per scheduled day.
func (s *TripService) PlanTrip(ctx context.Context, req PlanTripRequest) (*PlanTripResult, error) {
	defer startSegment(ctx, "TripService/PlanTrip").End()

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	for _, l := range []domain.Location{req.CurrentLocation, req.PickupLocation, req.DropoffLocation} {
		if !isValidLocation(l) {
			return nil, ErrInvalidLocation
		}
	}
	if err := hos.ValidateCycleUsed(req.CurrentCycleUsed); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	route, stops, err := s.planner.Plan(ctx, req.CurrentLocation, req.PickupLocation, req.DropoffLocation)
	if err != nil {
		return nil, err
	}

	plannedStart := req.PlannedStart
	if plannedStart.IsZero() {
		plannedStart = s.opts.Now()
	}

	tripID := uuid.New().String()
	params := hos.TripParameters{
		TripID:           tripID,
		Driver:           driver,
		CurrentLocation:  stops[0],
		PickupLocation:   stops[1],
		DropoffLocation:  stops[2],
		CurrentCycleUsed: req.CurrentCycleUsed,
		PlannedStart:     plannedStart,
		Location:         s.opts.Location,
		Route:            route,
	}

	locked, err := s.lockStore.AcquireDriverLock(ctx, driver.ID, planLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		metrics.LockContention.Inc()
		return nil, ErrDriverDayBusy
	}
	defer func() {
		if err := s.lockStore.ReleaseDriverLock(ctx, driver.ID); err != nil {
			log.Printf("lock_release_failed driver_id=%s err=%v", driver.ID, err)
		}
	}()

	history, err := loadHistory(ctx, s.logRepo, driver.ID, domain.StartOfDay(plannedStart, s.opts.Location))
	if err != nil {
		return nil, err
	}

	seg := startSegment(ctx, "hos/Simulate")
	sched, err := s.simulator.Simulate(params, history)
	seg.End()
	if err != nil {
		return nil, err
	}

	plan, err := s.stops.Plan(params)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	trip := &domain.Trip{
		ID:                     tripID,
		DriverID:               driver.ID,
		Name:                   tripName(req.Name, stops[1], stops[2]),
		Status:                 domain.TripStatusPlanned,
		CurrentLocation:        stops[0],
		PickupLocation:         stops[1],
		DropoffLocation:        stops[2],
		CurrentCycleUsed:       req.CurrentCycleUsed,
		TotalDistanceMiles:     math.Round(route.Miles*100) / 100,
		EstimatedDurationHours: math.Round(route.Hours*100) / 100,
		PlannedStart:           sched.PlannedStart,
		PlannedEnd:             sched.PlannedEnd,
		RestStops:              plan.RestStops,
		FuelStops:              plan.FuelStops,
		CreatedAt:              now,
	}

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Trips.Create(ctx, trip); err != nil {
			return err
		}
		for _, day := range sched.Days {
			existing, err := repos.Logs.GetByDriverDate(ctx, driver.ID, day.Key())
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if existing != nil {
				return ErrScheduleConflict
			}
			day.CreatedAt = now
			day.UpdatedAt = now
			if err := repos.Logs.Create(ctx, day); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return ErrScheduleConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TripsPlanned.WithLabelValues(string(route.Source)).Inc()
	metrics.SimulatedDays.Observe(float64(len(sched.Days)))
	recordViolations(sched.Violations)
	s.invalidateStatus(ctx, driver.ID)

	log.Printf("trip_planned trip_id=%s driver_id=%s days=%d rest_days=%d miles=%.1f source=%s",
		trip.ID, driver.ID, len(sched.Days), sched.RestDaysInserted, route.Miles, route.Source)

	return &PlanTripResult{
		Trip:             trip,
		Days:             sched.Days,
		Violations:       sched.Violations,
		RouteSource:      route.Source,
		RestDaysInserted: sched.RestDaysInserted,
	}, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves trips, optionally for one driver.
func (s *TripService) GetAllTrips(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx, driverID)
}

// StartTrip moves a planned trip in progress and records an on-duty
// "Trip started" entry at the current instant.
func (s *TripService) StartTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	defer startSegment(ctx, "TripService/StartTrip").End()

	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusPlanned {
		return nil, ErrTripNotPlanned
	}

	active, err := s.tripRepo.GetActiveByDriverID(ctx, trip.DriverID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrDriverHasActiveTrip
	}

	now := s.opts.Now()
	err = s.transition(ctx, trip, now, func(t *domain.Trip) {
		t.Status = domain.TripStatusInProgress
		t.ActualStart = now
	}, hos.AppendInput{
		Status:   domain.DutyStatusOnDutyNotDriving,
		Start:    now,
		Location: trip.CurrentLocation,
		Notes:    "Trip started - Pre-trip inspection",
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// CompleteTrip completes an in-progress trip and records an off-duty
// "Trip completed" entry at the current instant.
func (s *TripService) CompleteTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	defer startSegment(ctx, "TripService/CompleteTrip").End()

	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if trip.Status != domain.TripStatusInProgress {
		return nil, ErrTripNotInProgress
	}

	now := s.opts.Now()
	err = s.transition(ctx, trip, now, func(t *domain.Trip) {
		t.Status = domain.TripStatusCompleted
		t.ActualEnd = now
	}, hos.AppendInput{
		Status:   domain.DutyStatusOffDuty,
		Start:    now,
		Location: trip.DropoffLocation,
		Notes:    "Trip completed - Post-trip inspection",
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// transition applies a lifecycle change and appends the matching duty record
// to the driver's log for the current day in one transaction. A missing log is
// opened. When that day's timeline already covers the instant (a generated
// schedule day) the record is skipped and the lifecycle change still commits.
func (s *TripService) transition(ctx context.Context, trip *domain.Trip, now time.Time, apply func(*domain.Trip), record hos.AppendInput) error {
	date := domain.StartOfDay(now, s.opts.Location)

	locked, err := s.lockStore.AcquireDriverDayLock(ctx, trip.DriverID, domain.DateKey(date), s.opts.LockTTL)
	if err != nil {
		return err
	}
	if !locked {
		metrics.LockContention.Inc()
		return ErrDriverDayBusy
	}
	defer func() {
		if err := s.lockStore.ReleaseDriverDayLock(ctx, trip.DriverID, domain.DateKey(date)); err != nil {
			log.Printf("lock_release_failed driver_id=%s date=%s err=%v", trip.DriverID, domain.DateKey(date), err)
		}
	}()

	var added []*domain.Violation
	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		driver, err := repos.Drivers.GetByID(ctx, trip.DriverID)
		if err != nil {
			return err
		}

		dl, err := repos.Logs.GetByDriverDate(ctx, trip.DriverID, domain.DateKey(date))
		create := errors.Is(err, repository.ErrNotFound)
		if err != nil && !create {
			return err
		}
		if create {
			dl = domain.NewDailyLog(uuid.New().String(), trip.DriverID, date, s.opts.Location)
			dl.TripID = trip.ID
			dl.CreatedAt = now
		}

		history, err := loadHistory(ctx, repos.Logs, trip.DriverID, date)
		if err != nil {
			return err
		}

		_, added, err = s.mutator.AppendStatus(dl, record, hos.DetectInput{Driver: driver, History: history})
		switch {
		case errors.Is(err, hos.ErrInvalidTransition):
			log.Printf("duty_record_skipped trip_id=%s log_id=%s reason=%v", trip.ID, dl.ID, err)
			added = nil
		case err != nil:
			return err
		default:
			dl.UpdatedAt = now
			if create {
				err = repos.Logs.Create(ctx, dl)
			} else {
				err = repos.Logs.Save(ctx, dl)
			}
			if err != nil {
				return err
			}
		}

		apply(trip)
		return repos.Trips.Update(ctx, trip)
	})
	if err != nil {
		return err
	}

	recordViolations(added)
	s.invalidateStatus(ctx, trip.DriverID)
	log.Printf("trip_status_changed trip_id=%s driver_id=%s status=%s", trip.ID, trip.DriverID, trip.Status)
	return nil
}

func (s *TripService) invalidateStatus(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateHOSStatus(ctx, driverID); err != nil {
		log.Printf("hos_status_invalidate_failed driver_id=%s err=%v", driverID, err)
	}
}

// isValidLocation requires a name to geocode or in-range coordinates.
func isValidLocation(l domain.Location) bool {
	if l.Coords != nil {
		return isValidLatitude(l.Coords.Lat) && isValidLongitude(l.Coords.Lng)
	}
	return strings.TrimSpace(l.Name) != ""
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

func tripName(name string, pickup, dropoff domain.Location) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	from, to := pickup.Name, dropoff.Name
	if from == "" || to == "" {
		return "Trip"
	}
	return from + " to " + to
}
