package service

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/metrics"
	"trucklog/internal/repository"
)

const (
	defaultDriverDayLockTTL = 10 * time.Second
	// historyDays covers the longest cycle window, which also contains the previous day.
	historyDays = 8
)

// HOSOptions configures the services that write daily logs.
type HOSOptions struct {
	Location *time.Location   // Trip-day clock; UTC when nil
	LockTTL  time.Duration    // Driver-day lock TTL; 10s when zero
	Now      func() time.Time // Clock; time.Now when nil
}

func (o HOSOptions) withDefaults() HOSOptions {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.LockTTL <= 0 {
		o.LockTTL = defaultDriverDayLockTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// startSegment opens a New Relic segment when the context carries a transaction.
// Segment.End is safe on a nil segment.
func startSegment(ctx context.Context, name string) *newrelic.Segment {
	if txn := newrelic.FromContext(ctx); txn != nil {
		return txn.StartSegment(name)
	}
	return nil
}

// loadHistory returns the driver's logs for the days before date that the
// detector and cycle calculator can look at.
func loadHistory(ctx context.Context, logs repository.LogRepository, driverID string, date time.Time) (hos.History, error) {
	from := date.AddDate(0, 0, -historyDays)
	to := date.AddDate(0, 0, -1)
	stored, err := logs.ListByDriver(ctx, driverID, from, to)
	if err != nil {
		return hos.History{}, err
	}
	return hos.NewHistory(stored...), nil
}

func recordViolations(vs []*domain.Violation) {
	for _, v := range vs {
		metrics.ViolationsDetected.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}
}
