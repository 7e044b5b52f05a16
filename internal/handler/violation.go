package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trucklog/internal/service"
)

// ViolationHandler handles HTTP requests for HOS violations.
type ViolationHandler struct {
	violationService *service.ViolationService
}

// NewViolationHandler creates a new ViolationHandler.
func NewViolationHandler(violationService *service.ViolationService) *ViolationHandler {
	return &ViolationHandler{violationService: violationService}
}

// ResolveViolationRequest is the HTTP request body for resolving a violation.
type ResolveViolationRequest struct {
	Notes string `json:"notes"`
}

// ListViolations handles GET /v1/violations?driver_id=&log_id=&type=&severity=&resolved=&limit=
func (h *ViolationHandler) ListViolations(c *gin.Context) {
	req := service.ListViolationsRequest{
		DriverID: c.Query("driver_id"),
		LogID:    c.Query("log_id"),
		Type:     c.Query("type"),
		Severity: c.Query("severity"),
	}

	if v := c.Query("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "resolved must be true or false"})
			return
		}
		req.Resolved = &resolved
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		req.Limit = limit
	}

	violations, err := h.violationService.ListViolations(requestContext(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, violationResponses(violations))
}

// GetViolation handles GET /v1/violations/:id
func (h *ViolationHandler) GetViolation(c *gin.Context) {
	v, err := h.violationService.GetViolation(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, violationResponse(v))
}

// Resolve handles POST /v1/violations/:id/resolve
func (h *ViolationHandler) Resolve(c *gin.Context) {
	var req ResolveViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	v, err := h.violationService.Resolve(requestContext(c), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, violationResponse(v))
}
