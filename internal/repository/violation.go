package repository

import (
	"context"

	"trucklog/internal/domain"
)

// ViolationFilter narrows a violation listing. Zero fields match everything.
type ViolationFilter struct {
	DriverID string
	LogID    string
	Type     domain.ViolationType
	Severity domain.Severity
	Resolved *bool
	Limit    int
}

// ViolationRepository defines the persistence operations for violations.
type ViolationRepository interface {
	// GetByID retrieves a violation by ID.
	GetByID(ctx context.Context, id string) (*domain.Violation, error)

	// List retrieves violations matching the filter, newest first.
	List(ctx context.Context, filter ViolationFilter) ([]*domain.Violation, error)

	// UpdateResolution stores the resolved flag and notes.
	UpdateResolution(ctx context.Context, v *domain.Violation) error
}
