package repository

import (
	"context"
	"time"

	"trucklog/internal/domain"
)

// LogRepository defines the persistence operations for daily logs.
// Logs are loaded with their intervals and violations attached.
type LogRepository interface {
	// Create persists a new log together with any intervals and violations it carries.
	// Returns ErrDuplicate if the driver already has a log for that date.
	Create(ctx context.Context, log *domain.DailyLog) error

	// GetByID retrieves a log by ID.
	GetByID(ctx context.Context, id string) (*domain.DailyLog, error)

	// GetByDriverDate retrieves the driver's log for a calendar date key ("2006-01-02").
	GetByDriverDate(ctx context.Context, driverID, date string) (*domain.DailyLog, error)

	// ListByDriver retrieves the driver's logs with from <= log_date <= to, oldest first.
	ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]*domain.DailyLog, error)

	// Save writes the log's aggregates, flags, certification, intervals, and
	// any violations not yet stored. Stored violations are left untouched.
	Save(ctx context.Context, log *domain.DailyLog) error
}
