package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"trucklog/internal/hos"
	"trucklog/internal/repository"
	"trucklog/internal/routing"
	"trucklog/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// requestContext returns the request context carrying the New Relic
// transaction started by the router middleware, if any.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if txn := nrgin.Transaction(c); txn != nil {
		ctx = newrelic.NewContext(ctx, txn)
	}
	return ctx
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, hos.ErrValidation),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidDriverName),
		errors.Is(err, service.ErrInvalidCycleType),
		errors.Is(err, service.ErrInvalidLogID),
		errors.Is(err, service.ErrInvalidLogDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidViolationID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidViolationFilter):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, hos.ErrInvalidTransition),
		errors.Is(err, hos.ErrAlreadyCertified),
		errors.Is(err, hos.ErrAlreadyResolved),
		errors.Is(err, service.ErrDriverDayBusy),
		errors.Is(err, service.ErrLogExists),
		errors.Is(err, service.ErrScheduleConflict),
		errors.Is(err, service.ErrDriverHasActiveTrip),
		errors.Is(err, service.ErrTripNotPlanned),
		errors.Is(err, service.ErrTripNotInProgress),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Upstream routing failures
	case errors.Is(err, hos.ErrMissingRoute),
		errors.Is(err, routing.ErrRoutingFailed):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

const timeFormat = time.RFC3339

// formatTime renders t, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}
