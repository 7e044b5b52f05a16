package tests

import (
	"sync"
	"testing"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/service"
)

var day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// testClock is a settable clock for the services.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fixture wires services over fresh mocks.
type fixture struct {
	drivers    *MockDriverRepository
	logs       *MockLogRepository
	violations *MockViolationRepository
	trips      *MockTripRepository
	tx         *MockTransactor
	locks      *MockLockStore
	cache      *MockCacheStore
	planner    *MockRoutePlanner
	clock      *testClock
	mutator    *hos.Mutator
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		drivers:    NewMockDriverRepository(),
		logs:       NewMockLogRepository(),
		violations: NewMockViolationRepository(),
		trips:      NewMockTripRepository(),
		locks:      NewMockLockStore(),
		cache:      NewMockCacheStore(),
		planner:    &MockRoutePlanner{Miles: 825, Hours: 15},
		clock:      &testClock{now: now},
		mutator:    hos.NewMutator(hos.NewDetector()),
	}
	f.tx = NewMockTransactor(f.drivers, f.logs, f.violations, f.trips)
	f.drivers.AddDriver(&domain.Driver{ID: "driver-1", Name: "Dana Reyes", CycleType: domain.CycleType70Hour8Day})
	return f
}

func (f *fixture) opts() service.HOSOptions {
	return service.HOSOptions{Location: time.UTC, LockTTL: 10 * time.Second, Now: f.clock.Now}
}

func (f *fixture) logService() *service.LogService {
	return service.NewLogService(f.tx, f.logs, f.drivers, f.locks, f.cache, f.mutator, f.opts())
}

func (f *fixture) tripService() *service.TripService {
	return service.NewTripService(f.tx, f.trips, f.drivers, f.logs, f.locks, f.cache, f.planner, f.mutator, f.opts())
}

func (f *fixture) driverService() *service.DriverService {
	return service.NewDriverService(f.cache, f.drivers, f.logs, f.opts())
}

func (f *fixture) violationService() *service.ViolationService {
	return service.NewViolationService(f.violations)
}

// addLog stores an empty log for driver-1 on day.
func (f *fixture) addLog(id string, day time.Time) *domain.DailyLog {
	dl := domain.NewDailyLog(id, "driver-1", day, time.UTC)
	f.logs.AddLog(dl)
	return dl
}

func coords(lat, lng float64) domain.Location {
	return domain.Location{Name: "stop", Coords: &domain.Coordinates{Lat: lat, Lng: lng}}
}
