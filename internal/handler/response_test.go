package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"trucklog/internal/hos"
	"trucklog/internal/repository"
	"trucklog/internal/routing"
	"trucklog/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: repository.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("load log: %w", repository.ErrNotFound), want: http.StatusNotFound},
		{name: "validation", err: &hos.ValidationError{Field: "duty_status", Value: "napping"}, want: http.StatusBadRequest},
		{name: "bad filter", err: service.ErrInvalidViolationFilter, want: http.StatusBadRequest},
		{name: "transition", err: &hos.TransitionError{LogID: "log-1", At: time.Now()}, want: http.StatusConflict},
		{name: "certified", err: hos.ErrAlreadyCertified, want: http.StatusConflict},
		{name: "resolved", err: hos.ErrAlreadyResolved, want: http.StatusConflict},
		{name: "busy", err: service.ErrDriverDayBusy, want: http.StatusConflict},
		{name: "schedule conflict", err: service.ErrScheduleConflict, want: http.StatusConflict},
		{name: "duplicate", err: repository.ErrDuplicate, want: http.StatusConflict},
		{name: "routing", err: fmt.Errorf("ors: %w", routing.ErrRoutingFailed), want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "" {
		t.Errorf("expected empty string for zero time, got %q", got)
	}
	ts := time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)
	if got := formatTime(ts); got != "2025-03-10T06:30:00Z" {
		t.Errorf("unexpected format %q", got)
	}
}
