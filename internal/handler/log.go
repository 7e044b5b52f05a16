package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trucklog/internal/service"
)

const (
	dateLayout         = "2006-01-02"
	defaultLogListDays = 7
)

// LogHandler handles HTTP requests for daily logs and duty records.
type LogHandler struct {
	logService *service.LogService
	loc        *time.Location
	now        func() time.Time
}

// NewLogHandler creates a new LogHandler. Query dates are read in loc.
func NewLogHandler(logService *service.LogService, loc *time.Location) *LogHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LogHandler{logService: logService, loc: loc, now: time.Now}
}

// OpenLogRequest is the HTTP request body for opening a daily log.
type OpenLogRequest struct {
	LogDate   string `json:"log_date"`
	VehicleID string `json:"vehicle_id"`
	TripID    string `json:"trip_id"`
}

// DutyRecordRequest is the HTTP request body for a duty status change.
type DutyRecordRequest struct {
	DutyStatus string          `json:"duty_status"`
	StartTime  *time.Time      `json:"start_time"`
	Location   LocationPayload `json:"location"`
	Notes      string          `json:"notes"`
	Odometer   *int            `json:"odometer"`
}

// MutationResponse is the HTTP response for a log mutation.
type MutationResponse struct {
	Log           LogResponse         `json:"log"`
	Record        *IntervalResponse   `json:"duty_record,omitempty"`
	NewViolations []ViolationResponse `json:"new_violations"`
}

func mutationResponse(r *service.MutationResult) MutationResponse {
	resp := MutationResponse{
		Log:           logResponse(r.Log),
		NewViolations: violationResponses(r.NewViolations),
	}
	if r.Interval != nil {
		iv := intervalResponse(r.Interval)
		resp.Record = &iv
	}
	return resp
}

// OpenLog handles POST /v1/drivers/:id/logs
func (h *LogHandler) OpenLog(c *gin.Context) {
	var req OpenLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	dl, err := h.logService.OpenLog(requestContext(c), service.OpenLogRequest{
		DriverID:  c.Param("id"),
		Date:      req.LogDate,
		VehicleID: req.VehicleID,
		TripID:    req.TripID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, logResponse(dl))
}

// ListDriverLogs handles GET /v1/drivers/:id/logs?from=&to=
func (h *LogHandler) ListDriverLogs(c *gin.Context) {
	to := h.now().In(h.loc)
	from := to.AddDate(0, 0, -(defaultLogListDays - 1))

	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "from must be YYYY-MM-DD"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "to must be YYYY-MM-DD"})
			return
		}
		to = t
	}

	logs, err := h.logService.ListDriverLogs(requestContext(c), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, logResponses(logs))
}

// GetLog handles GET /v1/logs/:id
func (h *LogHandler) GetLog(c *gin.Context) {
	dl, err := h.logService.GetLog(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, logResponse(dl))
}

// AppendDutyRecord handles POST /v1/logs/:id/duty-records
func (h *LogHandler) AppendDutyRecord(c *gin.Context) {
	var req DutyRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.DutyStatus == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "duty_status is required"})
		return
	}

	in := service.AppendDutyRecordRequest{
		LogID:        c.Param("id"),
		Status:       req.DutyStatus,
		LocationName: req.Location.Name,
		Lat:          req.Location.Lat,
		Lng:          req.Location.Lng,
		Notes:        req.Notes,
		Odometer:     req.Odometer,
	}
	if req.StartTime != nil {
		in.Start = *req.StartTime
	}

	result, err := h.logService.AppendDutyRecord(requestContext(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, mutationResponse(result))
}

// CloseDay handles POST /v1/logs/:id/close-day
func (h *LogHandler) CloseDay(c *gin.Context) {
	result, err := h.logService.CloseDay(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, mutationResponse(result))
}

// Certify handles POST /v1/logs/:id/certify
func (h *LogHandler) Certify(c *gin.Context) {
	dl, err := h.logService.Certify(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, logResponse(dl))
}
