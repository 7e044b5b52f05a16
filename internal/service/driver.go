package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/redis"
	"trucklog/internal/repository"
)

// DriverService handles driver operations.
type DriverService struct {
	cacheStore redis.CacheStoreInterface
	driverRepo repository.DriverRepository
	logRepo    repository.LogRepository
	opts       HOSOptions
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	cacheStore redis.CacheStoreInterface,
	driverRepo repository.DriverRepository,
	logRepo repository.LogRepository,
	opts HOSOptions,
) *DriverService {
	return &DriverService{
		cacheStore: cacheStore,
		driverRepo: driverRepo,
		logRepo:    logRepo,
		opts:       opts.withDefaults(),
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	Name          string
	LicenseNumber string
	Phone         string
	Email         string
	CycleType     string // 70_8 when empty
}

// Register creates a new driver.
func (s *DriverService) Register(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidDriverName
	}

	cycle := domain.CycleType70Hour8Day
	if req.CycleType != "" {
		cycle = domain.CycleType(req.CycleType)
		if !cycle.IsValid() {
			return nil, ErrInvalidCycleType
		}
	}

	driver := &domain.Driver{
		ID:            uuid.New().String(),
		Name:          name,
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		CycleType:     cycle,
		CreatedAt:     s.opts.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	return driver, nil
}

// GetDriver retrieves a driver, serving from cache when possible.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetDriver(ctx, driverID); err == nil && cached != nil {
			return cachedToDriver(cached), nil
		}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetDriver(ctx, driverToCached(driver)); err != nil {
			log.Printf("driver_cache_set_failed driver_id=%s err=%v", driverID, err)
		}
	}

	return driver, nil
}

// ListDrivers retrieves all drivers.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// HOSStatus returns the driver's remaining hours as of now. Results are
// cached until the next log mutation or the cache TTL.
func (s *DriverService) HOSStatus(ctx context.Context, driverID string) (*hos.Status, error) {
	defer startSegment(ctx, "DriverService/HOSStatus").End()

	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetHOSStatus(ctx, driverID); err == nil && cached != nil {
			return cachedToStatus(cached), nil
		}
	}

	driver, err := s.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	today := domain.StartOfDay(now, s.opts.Location)
	logs, err := s.logRepo.ListByDriver(ctx, driverID, today.AddDate(0, 0, -historyDays), today)
	if err != nil {
		return nil, err
	}

	status := hos.Availability(driver, hos.NewHistory(logs...), now, s.opts.Location)

	if s.cacheStore != nil {
		if err := s.cacheStore.SetHOSStatus(ctx, statusToCached(driverID, status)); err != nil {
			log.Printf("hos_status_cache_set_failed driver_id=%s err=%v", driverID, err)
		}
	}

	return &status, nil
}

func driverToCached(d *domain.Driver) *redis.CachedDriver {
	return &redis.CachedDriver{
		ID:            d.ID,
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		Phone:         d.Phone,
		Email:         d.Email,
		CycleType:     string(d.CycleType),
		CreatedAt:     d.CreatedAt,
	}
}

func cachedToDriver(c *redis.CachedDriver) *domain.Driver {
	return &domain.Driver{
		ID:            c.ID,
		Name:          c.Name,
		LicenseNumber: c.LicenseNumber,
		Phone:         c.Phone,
		Email:         c.Email,
		CycleType:     domain.CycleType(c.CycleType),
		CreatedAt:     c.CreatedAt,
	}
}

func statusToCached(driverID string, st hos.Status) *redis.CachedHOSStatus {
	return &redis.CachedHOSStatus{
		DriverID:              driverID,
		At:                    st.At,
		CycleType:             string(st.CycleType),
		DailyDrivingUsed:      st.DailyDrivingUsed,
		DailyDrivingAvailable: st.DailyDrivingAvailable,
		DailyDutyUsed:         st.DailyDutyUsed,
		DailyDutyAvailable:    st.DailyDutyAvailable,
		CycleUsed:             st.CycleUsed,
		CycleAvailable:        st.CycleAvailable,
		CycleLimit:            st.CycleLimit,
		NeedsBreakSoon:        st.NeedsBreakSoon,
		NeedsDailyRest:        st.NeedsDailyRest,
		CurrentStatus:         string(st.CurrentStatus),
	}
}

func cachedToStatus(c *redis.CachedHOSStatus) *hos.Status {
	return &hos.Status{
		At:                    c.At,
		CycleType:             domain.CycleType(c.CycleType),
		DailyDrivingUsed:      c.DailyDrivingUsed,
		DailyDrivingAvailable: c.DailyDrivingAvailable,
		DailyDutyUsed:         c.DailyDutyUsed,
		DailyDutyAvailable:    c.DailyDutyAvailable,
		CycleUsed:             c.CycleUsed,
		CycleAvailable:        c.CycleAvailable,
		CycleLimit:            c.CycleLimit,
		NeedsBreakSoon:        c.NeedsBreakSoon,
		NeedsDailyRest:        c.NeedsDailyRest,
		CurrentStatus:         domain.DutyStatus(c.CurrentStatus),
	}
}
