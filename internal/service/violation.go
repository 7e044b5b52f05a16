package service

import (
	"context"
	"log"
	"strings"

	"trucklog/internal/domain"
	"trucklog/internal/metrics"
	"trucklog/internal/repository"
)

// ViolationService handles violation listing and resolution.
type ViolationService struct {
	violationRepo repository.ViolationRepository
}

// NewViolationService creates a new ViolationService.
func NewViolationService(violationRepo repository.ViolationRepository) *ViolationService {
	return &ViolationService{violationRepo: violationRepo}
}

// ListViolationsRequest contains the optional listing filters.
type ListViolationsRequest struct {
	DriverID string
	LogID    string
	Type     string
	Severity string
	Resolved *bool
	Limit    int
}

// ListViolations retrieves violations matching the request filters.
func (s *ViolationService) ListViolations(ctx context.Context, req ListViolationsRequest) ([]*domain.Violation, error) {
	filter := repository.ViolationFilter{
		DriverID: req.DriverID,
		LogID:    req.LogID,
		Resolved: req.Resolved,
		Limit:    req.Limit,
	}

	if req.Type != "" {
		filter.Type = domain.ViolationType(req.Type)
		if !filter.Type.IsValid() {
			return nil, ErrInvalidViolationFilter
		}
	}
	if req.Severity != "" {
		filter.Severity = domain.Severity(req.Severity)
		if !filter.Severity.IsValid() {
			return nil, ErrInvalidViolationFilter
		}
	}

	return s.violationRepo.List(ctx, filter)
}

// GetViolation retrieves a violation by ID.
func (s *ViolationService) GetViolation(ctx context.Context, id string) (*domain.Violation, error) {
	if id == "" {
		return nil, ErrInvalidViolationID
	}
	return s.violationRepo.GetByID(ctx, id)
}

// Resolve marks a violation resolved with notes. Resolution is write-once.
func (s *ViolationService) Resolve(ctx context.Context, id, notes string) (*domain.Violation, error) {
	defer startSegment(ctx, "ViolationService/Resolve").End()

	v, err := s.GetViolation(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := v.Resolve(strings.TrimSpace(notes)); err != nil {
		return nil, err
	}

	if err := s.violationRepo.UpdateResolution(ctx, v); err != nil {
		return nil, err
	}

	metrics.ViolationsResolved.WithLabelValues(string(v.Type)).Inc()
	log.Printf("violation_resolved violation_id=%s driver_id=%s type=%s", v.ID, v.DriverID, v.Type)

	return v, nil
}
