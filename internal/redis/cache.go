package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client    *redis.Client
	statusTTL time.Duration
}

// NewCacheStore creates a new CacheStore. statusTTL bounds how long a
// computed HOS status is served; zero uses DefaultHOSStatusTTL.
func NewCacheStore(client *redis.Client, statusTTL time.Duration) *CacheStore {
	if statusTTL <= 0 {
		statusTTL = DefaultHOSStatusTTL
	}
	return &CacheStore{client: client, statusTTL: statusTTL}
}

// Cache TTL constants
const (
	DriverCacheTTL      = 5 * time.Minute  // Profile data rarely changes
	DefaultHOSStatusTTL = 30 * time.Second // Remaining hours drift with the clock
)

// Key prefixes
const (
	driverCachePrefix    = "cache:driver:"
	hosStatusCachePrefix = "cache:hos-status:"
)

// CachedDriver represents a cached driver entity.
type CachedDriver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"license_number"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	CycleType     string    `json:"cycle_type"`
	CreatedAt     time.Time `json:"created_at"`
}

// CachedHOSStatus represents a driver's cached remaining hours.
type CachedHOSStatus struct {
	DriverID              string    `json:"driver_id"`
	At                    time.Time `json:"at"`
	CycleType             string    `json:"cycle_type"`
	DailyDrivingUsed      float64   `json:"daily_driving_used"`
	DailyDrivingAvailable float64   `json:"daily_driving_available"`
	DailyDutyUsed         float64   `json:"daily_duty_used"`
	DailyDutyAvailable    float64   `json:"daily_duty_available"`
	CycleUsed             float64   `json:"cycle_used"`
	CycleAvailable        float64   `json:"cycle_available"`
	CycleLimit            float64   `json:"cycle_limit"`
	NeedsBreakSoon        bool      `json:"needs_break_soon"`
	NeedsDailyRest        bool      `json:"needs_daily_rest"`
	CurrentStatus         string    `json:"current_status"`
}

// getJSON loads key into dst. Returns false on a cache miss.
func (s *CacheStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// GetDriver retrieves a driver from cache.
func (s *CacheStore) GetDriver(ctx context.Context, driverID string) (*CachedDriver, error) {
	var driver CachedDriver
	ok, err := s.getJSON(ctx, driverCachePrefix+driverID, &driver)
	if err != nil || !ok {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver in cache.
func (s *CacheStore) SetDriver(ctx context.Context, driver *CachedDriver) error {
	return s.setJSON(ctx, driverCachePrefix+driver.ID, driver, DriverCacheTTL)
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverCachePrefix+driverID).Err()
}

// GetHOSStatus retrieves a driver's HOS status from cache.
func (s *CacheStore) GetHOSStatus(ctx context.Context, driverID string) (*CachedHOSStatus, error) {
	var status CachedHOSStatus
	ok, err := s.getJSON(ctx, hosStatusCachePrefix+driverID, &status)
	if err != nil || !ok {
		return nil, err
	}
	return &status, nil
}

// SetHOSStatus stores a driver's HOS status in cache.
func (s *CacheStore) SetHOSStatus(ctx context.Context, status *CachedHOSStatus) error {
	return s.setJSON(ctx, hosStatusCachePrefix+status.DriverID, status, s.statusTTL)
}

// InvalidateHOSStatus removes a driver's HOS status from cache.
// Every log mutation calls it so the next read recomputes.
func (s *CacheStore) InvalidateHOSStatus(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, hosStatusCachePrefix+driverID).Err()
}
