package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/metrics"
	"trucklog/internal/redis"
	"trucklog/internal/repository"
)

// maxLogRangeDays bounds a single log listing.
const maxLogRangeDays = 366

// LogService handles daily log operations. Every mutation runs under the
// driver-day lock and inside one transaction.
type LogService struct {
	tx         repository.Transactor
	logRepo    repository.LogRepository
	driverRepo repository.DriverRepository
	lockStore  redis.LockStoreInterface
	cacheStore redis.CacheStoreInterface
	mutator    *hos.Mutator
	opts       HOSOptions
}

// NewLogService creates a new LogService.
func NewLogService(
	tx repository.Transactor,
	logRepo repository.LogRepository,
	driverRepo repository.DriverRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	mutator *hos.Mutator,
	opts HOSOptions,
) *LogService {
	return &LogService{
		tx:         tx,
		logRepo:    logRepo,
		driverRepo: driverRepo,
		lockStore:  lockStore,
		cacheStore: cacheStore,
		mutator:    mutator,
		opts:       opts.withDefaults(),
	}
}

// OpenLogRequest contains the parameters for opening a driver-day log.
type OpenLogRequest struct {
	DriverID  string
	Date      string // "2006-01-02"; today in the trip-day clock when empty
	VehicleID string
	TripID    string
}

// OpenLog creates an empty log for a driver-day.
func (s *LogService) OpenLog(ctx context.Context, req OpenLogRequest) (*domain.DailyLog, error) {
	defer startSegment(ctx, "LogService/OpenLog").End()

	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	date := s.opts.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, s.opts.Location)
		if err != nil {
			return nil, ErrInvalidLogDate
		}
		date = parsed
	}

	if _, err := s.driverRepo.GetByID(ctx, req.DriverID); err != nil {
		return nil, err
	}

	dl := domain.NewDailyLog(uuid.New().String(), req.DriverID, date, s.opts.Location)
	dl.VehicleID = req.VehicleID
	dl.TripID = req.TripID
	dl.CreatedAt = s.opts.Now()
	dl.UpdatedAt = dl.CreatedAt

	release, err := s.lock(ctx, dl.DriverID, dl.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		existing, err := repos.Logs.GetByDriverDate(ctx, dl.DriverID, dl.Key())
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrLogExists
		}
		return repos.Logs.Create(ctx, dl)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrLogExists
	}
	if err != nil {
		return nil, err
	}

	log.Printf("log_opened log_id=%s driver_id=%s date=%s", dl.ID, dl.DriverID, dl.Key())
	return dl, nil
}

// AppendDutyRecordRequest contains the parameters for a duty status change.
type AppendDutyRecordRequest struct {
	LogID        string
	Status       string
	Start        time.Time // Now when zero
	LocationName string
	Lat          *float64
	Lng          *float64
	Notes        string
	Odometer     *int
}

// MutationResult is a log after a mutation and the violations it produced.
type MutationResult struct {
	Log           *domain.DailyLog
	Interval      *domain.DutyInterval
	NewViolations []*domain.Violation
}

// AppendDutyRecord records a duty status change on a log. The open interval,
// if any, is closed at the new record's start.
func (s *LogService) AppendDutyRecord(ctx context.Context, req AppendDutyRecordRequest) (*MutationResult, error) {
	defer startSegment(ctx, "LogService/AppendDutyRecord").End()

	status, err := hos.ParseDutyStatus(req.Status)
	if err != nil {
		return nil, err
	}

	start := req.Start
	if start.IsZero() {
		start = s.opts.Now()
	}

	location := domain.Location{Name: req.LocationName}
	if req.Lat != nil && req.Lng != nil {
		location.Coords = &domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	var iv *domain.DutyInterval
	result, err := s.mutate(ctx, req.LogID, func(dl *domain.DailyLog, in hos.DetectInput) ([]*domain.Violation, error) {
		var added []*domain.Violation
		var err error
		iv, added, err = s.mutator.AppendStatus(dl, hos.AppendInput{
			Status:   status,
			Start:    start,
			Location: location,
			Notes:    req.Notes,
			Odometer: req.Odometer,
		}, in)
		return added, err
	})
	if err != nil {
		return nil, err
	}

	metrics.DutyStatusChanges.WithLabelValues(string(status)).Inc()
	result.Interval = iv
	return result, nil
}

// CloseDay closes the log's open interval at midnight and re-runs detection.
func (s *LogService) CloseDay(ctx context.Context, logID string) (*MutationResult, error) {
	defer startSegment(ctx, "LogService/CloseDay").End()

	return s.mutate(ctx, logID, func(dl *domain.DailyLog, in hos.DetectInput) ([]*domain.Violation, error) {
		if err := s.mutator.CloseDay(dl); err != nil {
			return nil, err
		}
		return s.mutator.Finalize(dl, in), nil
	})
}

// Certify marks the log certified. Certification is write-once.
func (s *LogService) Certify(ctx context.Context, logID string) (*domain.DailyLog, error) {
	defer startSegment(ctx, "LogService/Certify").End()

	result, err := s.mutate(ctx, logID, func(dl *domain.DailyLog, _ hos.DetectInput) ([]*domain.Violation, error) {
		return nil, s.mutator.Certify(dl, s.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	return result.Log, nil
}

// GetLog retrieves a log by ID.
func (s *LogService) GetLog(ctx context.Context, logID string) (*domain.DailyLog, error) {
	if logID == "" {
		return nil, ErrInvalidLogID
	}
	return s.logRepo.GetByID(ctx, logID)
}

// ListDriverLogs retrieves a driver's logs for the inclusive date range.
func (s *LogService) ListDriverLogs(ctx context.Context, driverID string, from, to time.Time) ([]*domain.DailyLog, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	from = domain.StartOfDay(from, s.opts.Location)
	to = domain.StartOfDay(to, s.opts.Location)
	if to.Before(from) || to.Sub(from) > maxLogRangeDays*24*time.Hour {
		return nil, ErrInvalidDateRange
	}

	return s.logRepo.ListByDriver(ctx, driverID, from, to)
}

// mutate loads a log under its driver-day lock, applies fn inside a
// transaction, and saves the result.
func (s *LogService) mutate(
	ctx context.Context,
	logID string,
	fn func(dl *domain.DailyLog, in hos.DetectInput) ([]*domain.Violation, error),
) (*MutationResult, error) {
	if logID == "" {
		return nil, ErrInvalidLogID
	}

	current, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, current.DriverID, current.Key())
	if err != nil {
		return nil, err
	}
	defer release()

	result := &MutationResult{}
	err = s.tx.WithinTx(ctx, func(repos repository.Repositories) error {
		// Reload under the lock; the first read only located the driver-day.
		dl, err := repos.Logs.GetByID(ctx, logID)
		if err != nil {
			return err
		}
		driver, err := repos.Drivers.GetByID(ctx, dl.DriverID)
		if err != nil {
			return err
		}
		history, err := loadHistory(ctx, repos.Logs, dl.DriverID, dl.LogDate)
		if err != nil {
			return err
		}

		added, err := fn(dl, hos.DetectInput{Driver: driver, History: history})
		if err != nil {
			return err
		}

		dl.UpdatedAt = s.opts.Now()
		if err := repos.Logs.Save(ctx, dl); err != nil {
			return err
		}

		result.Log = dl
		result.NewViolations = added
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStatus(ctx, result.Log.DriverID)
	recordViolations(result.NewViolations)
	if len(result.NewViolations) > 0 {
		log.Printf("violations_detected log_id=%s driver_id=%s count=%d", result.Log.ID, result.Log.DriverID, len(result.NewViolations))
	}

	return result, nil
}

// lock acquires the driver-day lock and returns its release func.
func (s *LogService) lock(ctx context.Context, driverID, date string) (func(), error) {
	locked, err := s.lockStore.AcquireDriverDayLock(ctx, driverID, date, s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		metrics.LockContention.Inc()
		return nil, ErrDriverDayBusy
	}

	return func() {
		if err := s.lockStore.ReleaseDriverDayLock(ctx, driverID, date); err != nil {
			log.Printf("lock_release_failed driver_id=%s date=%s err=%v", driverID, date, err)
		}
	}, nil
}

func (s *LogService) invalidateStatus(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateHOSStatus(ctx, driverID); err != nil {
		log.Printf("hos_status_invalidate_failed driver_id=%s err=%v", driverID, err)
	}
}
