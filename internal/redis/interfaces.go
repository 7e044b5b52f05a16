package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverDayLock(ctx context.Context, driverID, date string, ttl time.Duration) (bool, error)
	ReleaseDriverDayLock(ctx context.Context, driverID, date string) error
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
}

// CacheStoreInterface defines the interface for entity caching.
// Get methods return nil, nil on a cache miss.
type CacheStoreInterface interface {
	GetDriver(ctx context.Context, driverID string) (*CachedDriver, error)
	SetDriver(ctx context.Context, driver *CachedDriver) error
	InvalidateDriver(ctx context.Context, driverID string) error
	GetHOSStatus(ctx context.Context, driverID string) (*CachedHOSStatus, error)
	SetHOSStatus(ctx context.Context, status *CachedHOSStatus) error
	InvalidateHOSStatus(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
