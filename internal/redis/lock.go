package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func driverDayLockKey(driverID, date string) string {
	return fmt.Sprintf("lock:driver-day:%s:%s", driverID, date)
}

func driverLockKey(driverID string) string {
	return fmt.Sprintf("lock:driver:%s", driverID)
}

// AcquireDriverDayLock attempts to lock one driver-day for a log mutation.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDriverDayLock(ctx context.Context, driverID, date string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, driverDayLockKey(driverID, date), "1", ttl).Result()
}

// ReleaseDriverDayLock releases the lock for a driver-day.
func (s *LockStore) ReleaseDriverDayLock(ctx context.Context, driverID, date string) error {
	return s.client.Del(ctx, driverDayLockKey(driverID, date)).Err()
}

// AcquireDriverLock attempts to lock every day of a driver, used while a
// multi-day schedule is written. Returns true if the lock was acquired.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, driverLockKey(driverID), "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseDriverLock releases the lock for the given driver.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverLockKey(driverID)).Err()
}
