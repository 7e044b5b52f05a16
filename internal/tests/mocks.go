package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/redis"
	"trucklog/internal/repository"
	"trucklog/internal/routing"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount  int32
	GetByIDCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOG REPOSITORY
// ──────────────────────────────────────────────

// MockLogRepository is a mock implementation of LogRepository. It stores
// deep copies, so a log only changes when Create or Save is called.
type MockLogRepository struct {
	mu   sync.RWMutex
	logs map[string]*domain.DailyLog

	// Counters for verification
	CreateCallCount int32
	SaveCallCount   int32

	// Error injection
	CreateError error
	SaveError   error
}

// NewMockLogRepository creates a new mock log repository.
func NewMockLogRepository() *MockLogRepository {
	return &MockLogRepository{
		logs: make(map[string]*domain.DailyLog),
	}
}

// AddLog adds a log to the mock repository.
func (m *MockLogRepository) AddLog(log *domain.DailyLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[log.ID] = cloneLog(log)
}

func (m *MockLogRepository) Create(ctx context.Context, log *domain.DailyLog) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.DriverID == log.DriverID && l.Key() == log.Key() {
			return repository.ErrDuplicate
		}
	}
	m.logs[log.ID] = cloneLog(log)
	return nil
}

func (m *MockLogRepository) GetByID(ctx context.Context, id string) (*domain.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneLog(log), nil
}

func (m *MockLogRepository) GetByDriverDate(ctx context.Context, driverID, date string) (*domain.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.logs {
		if l.DriverID == driverID && l.Key() == date {
			return cloneLog(l), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockLogRepository) ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]*domain.DailyLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fromKey, toKey := domain.DateKey(from), domain.DateKey(to)
	var result []*domain.DailyLog
	for _, l := range m.logs {
		if l.DriverID == driverID && l.Key() >= fromKey && l.Key() <= toKey {
			result = append(result, cloneLog(l))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key() < result[j].Key() })
	return result, nil
}

func (m *MockLogRepository) Save(ctx context.Context, log *domain.DailyLog) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[log.ID]; !ok {
		return repository.ErrNotFound
	}
	m.logs[log.ID] = cloneLog(log)
	return nil
}

// GetLog returns the stored log for test assertions.
func (m *MockLogRepository) GetLog(id string) *domain.DailyLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.logs[id]; ok {
		return cloneLog(l)
	}
	return nil
}

// CountLogs returns the number of stored logs.
func (m *MockLogRepository) CountLogs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}

func cloneLog(l *domain.DailyLog) *domain.DailyLog {
	cp := *l
	cp.Intervals = make([]*domain.DutyInterval, len(l.Intervals))
	for i, iv := range l.Intervals {
		c := *iv
		cp.Intervals[i] = &c
	}
	cp.Violations = make([]*domain.Violation, len(l.Violations))
	for i, v := range l.Violations {
		c := *v
		cp.Violations[i] = &c
	}
	return &cp
}

// ──────────────────────────────────────────────
// MOCK VIOLATION REPOSITORY
// ──────────────────────────────────────────────

// MockViolationRepository is a mock implementation of ViolationRepository.
type MockViolationRepository struct {
	mu         sync.RWMutex
	violations map[string]*domain.Violation

	// Counters for verification
	UpdateResolutionCallCount int32

	// Error injection
	UpdateResolutionError error
}

// NewMockViolationRepository creates a new mock violation repository.
func NewMockViolationRepository() *MockViolationRepository {
	return &MockViolationRepository{
		violations: make(map[string]*domain.Violation),
	}
}

// AddViolation adds a violation to the mock repository.
func (m *MockViolationRepository) AddViolation(v *domain.Violation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *v
	m.violations[v.ID] = &copy
}

func (m *MockViolationRepository) GetByID(ctx context.Context, id string) (*domain.Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.violations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *MockViolationRepository) List(ctx context.Context, filter repository.ViolationFilter) ([]*domain.Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Violation
	for _, v := range m.violations {
		switch {
		case filter.DriverID != "" && v.DriverID != filter.DriverID,
			filter.LogID != "" && v.LogID != filter.LogID,
			filter.Type != "" && v.Type != filter.Type,
			filter.Severity != "" && v.Severity != filter.Severity,
			filter.Resolved != nil && v.Resolved != *filter.Resolved:
			continue
		}
		copy := *v
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DetectedAt.After(result[j].DetectedAt) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockViolationRepository) UpdateResolution(ctx context.Context, v *domain.Violation) error {
	atomic.AddInt32(&m.UpdateResolutionCallCount, 1)
	if m.UpdateResolutionError != nil {
		return m.UpdateResolutionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.violations[v.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Resolved = v.Resolved
	stored.ResolutionNotes = v.ResolutionNotes
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetAll(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, t := range m.trips {
		if driverID != "" && t.DriverID != driverID {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID == driverID && t.Status == domain.TripStatusInProgress {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.trips[id]; ok {
		copy := *t
		return &copy
	}
	return nil
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs fn against the mock repositories. There is no
// rollback; a failing fn leaves earlier writes in place.
type MockTransactor struct {
	Repos repository.Repositories

	CallCount int32
	// Error injection: returned before fn runs.
	BeginError error
}

// NewMockTransactor creates a transactor over the given mocks.
func NewMockTransactor(drivers *MockDriverRepository, logs *MockLogRepository, violations *MockViolationRepository, trips *MockTripRepository) *MockTransactor {
	return &MockTransactor{Repos: repository.Repositories{
		Drivers:    drivers,
		Logs:       logs,
		Violations: violations,
		Trips:      trips,
	}}
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	atomic.AddInt32(&m.CallCount, 1)
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(m.Repos)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireDriverDayLock(ctx context.Context, driverID, date string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:driver-day:"+driverID+":"+date, ttl)
}

func (m *MockLockStore) ReleaseDriverDayLock(ctx context.Context, driverID, date string) error {
	return m.release("lock:driver-day:" + driverID + ":" + date)
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:driver:"+driverID, ttl)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return m.release("lock:driver:" + driverID)
}

// HoldDriverDayLock takes a driver-day lock as another writer would.
func (m *MockLockStore) HoldDriverDayLock(driverID, date string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["lock:driver-day:"+driverID+":"+date] = time.Now().Add(time.Minute)
}

// IsLocked reports whether any lock is held (for test assertions).
func (m *MockLockStore) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, expiry := range m.locks {
		if time.Now().Before(expiry) {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStore.
type MockCacheStore struct {
	mu       sync.Mutex
	drivers  map[string]*redis.CachedDriver
	statuses map[string]*redis.CachedHOSStatus

	// Counters
	SetHOSStatusCallCount        int32
	InvalidateHOSStatusCallCount int32

	// Error injection
	GetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		drivers:  make(map[string]*redis.CachedDriver),
		statuses: make(map[string]*redis.CachedHOSStatus),
	}
}

func (m *MockCacheStore) GetDriver(ctx context.Context, driverID string) (*redis.CachedDriver, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivers[driverID], nil
}

func (m *MockCacheStore) SetDriver(ctx context.Context, driver *redis.CachedDriver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockCacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

func (m *MockCacheStore) GetHOSStatus(ctx context.Context, driverID string) (*redis.CachedHOSStatus, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[driverID], nil
}

func (m *MockCacheStore) SetHOSStatus(ctx context.Context, status *redis.CachedHOSStatus) error {
	atomic.AddInt32(&m.SetHOSStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.DriverID] = status
	return nil
}

func (m *MockCacheStore) InvalidateHOSStatus(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.InvalidateHOSStatusCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, driverID)
	return nil
}

// HasHOSStatus reports whether a status is cached for the driver.
func (m *MockCacheStore) HasHOSStatus(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.statuses[driverID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK ROUTE PLANNER
// ──────────────────────────────────────────────

// MockRoutePlanner returns a fixed straight-line route through the stops.
// Stops without coordinates are placed at the origin.
type MockRoutePlanner struct {
	Miles float64
	Hours float64

	CallCount int32
	PlanError error
}

func (m *MockRoutePlanner) Plan(ctx context.Context, stops ...domain.Location) (*routing.Route, []domain.Location, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.PlanError != nil {
		return nil, nil, m.PlanError
	}
	resolved := make([]domain.Location, len(stops))
	geometry := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		if s.Coords == nil {
			s.Coords = &domain.Coordinates{}
		}
		resolved[i] = s
		geometry[i] = *s.Coords
	}
	return routing.NewRoute(m.Miles, m.Hours, geometry, routing.SourceORS), resolved, nil
}

// Ensure mocks implement interfaces.
var (
	_ repository.DriverRepository    = (*MockDriverRepository)(nil)
	_ repository.LogRepository       = (*MockLogRepository)(nil)
	_ repository.ViolationRepository = (*MockViolationRepository)(nil)
	_ repository.TripRepository      = (*MockTripRepository)(nil)
	_ repository.Transactor          = (*MockTransactor)(nil)
	_ redis.LockStoreInterface       = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface      = (*MockCacheStore)(nil)
)
