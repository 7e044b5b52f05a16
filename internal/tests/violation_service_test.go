package tests

import (
	"context"
	"errors"
	"testing"

	"trucklog/internal/domain"
	"trucklog/internal/repository"
	"trucklog/internal/service"
)

func seedViolations(f *fixture) {
	f.violations.AddViolation(&domain.Violation{
		ID: "v-1", LogID: "log-1", DriverID: "driver-1",
		Type: domain.ViolationDrive11h, Severity: domain.SeverityViolation,
		ActualValue: 12, LimitValue: 11, DetectedAt: at(day0, 18, 0),
	})
	f.violations.AddViolation(&domain.Violation{
		ID: "v-2", LogID: "log-1", DriverID: "driver-1",
		Type: domain.ViolationRestBreak, Severity: domain.SeverityWarning,
		ActualValue: 9, LimitValue: 8, DetectedAt: at(day0, 15, 0),
	})
	f.violations.AddViolation(&domain.Violation{
		ID: "v-3", LogID: "log-9", DriverID: "driver-9",
		Type: domain.ViolationDuty14h, Severity: domain.SeverityViolation,
		ActualValue: 15, LimitValue: 14, DetectedAt: at(day0, 21, 0),
		Resolved: true, ResolutionNotes: "dispatcher error",
	})
}

func TestResolveViolation_WriteOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(day0, 9, 0))
	seedViolations(f)
	svc := f.violationService()
	ctx := context.Background()

	v, err := svc.Resolve(ctx, "v-1", "  adverse driving conditions ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !v.Resolved || v.ResolutionNotes != "adverse driving conditions" {
		t.Errorf("expected resolved violation with trimmed notes, got %+v", v)
	}

	_, err = svc.Resolve(ctx, "v-1", "again")

	if !errors.Is(err, domain.ErrViolationAlreadyResolved) {
		t.Errorf("expected ErrViolationAlreadyResolved, got %v", err)
	}
	if f.violations.UpdateResolutionCallCount != 1 {
		t.Errorf("expected a single resolution write, got %d", f.violations.UpdateResolutionCallCount)
	}
	stored, _ := f.violations.GetByID(ctx, "v-1")
	if stored.ResolutionNotes != "adverse driving conditions" {
		t.Errorf("expected original notes kept, got %q", stored.ResolutionNotes)
	}
}

func TestResolveViolation_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(day0, 9, 0))

	if _, err := f.violationService().Resolve(context.Background(), "ghost", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.violationService().Resolve(context.Background(), "", ""); !errors.Is(err, service.ErrInvalidViolationID) {
		t.Errorf("expected ErrInvalidViolationID, got %v", err)
	}
}

func TestListViolations_Filters(t *testing.T) {
	t.Parallel()

	resolved := true
	unresolved := false

	tests := []struct {
		name    string
		req     service.ListViolationsRequest
		wantIDs []string
		wantErr error
	}{
		{name: "all newest first", req: service.ListViolationsRequest{}, wantIDs: []string{"v-3", "v-1", "v-2"}},
		{name: "by driver", req: service.ListViolationsRequest{DriverID: "driver-1"}, wantIDs: []string{"v-1", "v-2"}},
		{name: "by type", req: service.ListViolationsRequest{Type: "rest_break"}, wantIDs: []string{"v-2"}},
		{name: "by severity", req: service.ListViolationsRequest{Severity: "violation"}, wantIDs: []string{"v-3", "v-1"}},
		{name: "resolved", req: service.ListViolationsRequest{Resolved: &resolved}, wantIDs: []string{"v-3"}},
		{name: "unresolved with limit", req: service.ListViolationsRequest{Resolved: &unresolved, Limit: 1}, wantIDs: []string{"v-1"}},
		{name: "unknown type", req: service.ListViolationsRequest{Type: "drive_12h"}, wantErr: service.ErrInvalidViolationFilter},
		{name: "unknown severity", req: service.ListViolationsRequest{Severity: "minor"}, wantErr: service.ErrInvalidViolationFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, at(day0, 9, 0))
			seedViolations(f)

			got, err := f.violationService().ListViolations(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d violations, got %d", len(tt.wantIDs), len(got))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}
