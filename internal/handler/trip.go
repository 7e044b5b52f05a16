package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trucklog/internal/domain"
	"trucklog/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// PlanTripRequest is the HTTP request body for planning a trip.
type PlanTripRequest struct {
	DriverID         string          `json:"driver_id"`
	Name             string          `json:"name"`
	CurrentLocation  LocationPayload `json:"current_location"`
	PickupLocation   LocationPayload `json:"pickup_location"`
	DropoffLocation  LocationPayload `json:"dropoff_location"`
	CurrentCycleUsed float64         `json:"current_cycle_used"`
	PlannedStart     *time.Time      `json:"planned_start"`
}

// RestStopResponse is a planned rest along the route.
type RestStopResponse struct {
	Sequence               int     `json:"sequence"`
	Type                   string  `json:"stop_type"`
	RequiredHours          float64 `json:"required_duration_hours"`
	Lat                    float64 `json:"lat"`
	Lng                    float64 `json:"lng"`
	DistanceFromStartMiles float64 `json:"distance_from_start_miles"`
	HoursDrivenBefore      float64 `json:"hours_driven_before"`
	HoursOnDutyBefore      float64 `json:"hours_on_duty_before"`
}

// FuelStopResponse is a planned refuelling point along the route.
type FuelStopResponse struct {
	Sequence               int     `json:"sequence"`
	DistanceFromStartMiles float64 `json:"distance_from_start_miles"`
	Lat                    float64 `json:"lat"`
	Lng                    float64 `json:"lng"`
	DurationMinutes        float64 `json:"duration_minutes"`
}

// TripResponse is the HTTP response for trip data.
type TripResponse struct {
	ID                     string             `json:"id"`
	DriverID               string             `json:"driver_id"`
	Name                   string             `json:"name"`
	Status                 string             `json:"status"`
	CurrentLocation        LocationPayload    `json:"current_location"`
	PickupLocation         LocationPayload    `json:"pickup_location"`
	DropoffLocation        LocationPayload    `json:"dropoff_location"`
	CurrentCycleUsed       float64            `json:"current_cycle_used"`
	TotalDistanceMiles     float64            `json:"total_distance_miles"`
	EstimatedDurationHours float64            `json:"estimated_duration_hours"`
	PlannedStart           string             `json:"planned_start"`
	PlannedEnd             string             `json:"planned_end"`
	ActualStart            string             `json:"actual_start,omitempty"`
	ActualEnd              string             `json:"actual_end,omitempty"`
	RestStops              []RestStopResponse `json:"rest_stops"`
	FuelStops              []FuelStopResponse `json:"fuel_stops"`
}

// PlanTripResponse is the HTTP response for a planned trip.
type PlanTripResponse struct {
	Trip             TripResponse        `json:"trip"`
	DailyLogs        []LogResponse       `json:"daily_logs"`
	Violations       []ViolationResponse `json:"violations"`
	RouteSource      string              `json:"route_source"`
	RestDaysInserted int                 `json:"rest_days_inserted"`
}

func tripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:                     t.ID,
		DriverID:               t.DriverID,
		Name:                   t.Name,
		Status:                 string(t.Status),
		CurrentLocation:        locationPayload(t.CurrentLocation),
		PickupLocation:         locationPayload(t.PickupLocation),
		DropoffLocation:        locationPayload(t.DropoffLocation),
		CurrentCycleUsed:       t.CurrentCycleUsed,
		TotalDistanceMiles:     t.TotalDistanceMiles,
		EstimatedDurationHours: t.EstimatedDurationHours,
		PlannedStart:           formatTime(t.PlannedStart),
		PlannedEnd:             formatTime(t.PlannedEnd),
		ActualStart:            formatTime(t.ActualStart),
		ActualEnd:              formatTime(t.ActualEnd),
		RestStops:              make([]RestStopResponse, 0, len(t.RestStops)),
		FuelStops:              make([]FuelStopResponse, 0, len(t.FuelStops)),
	}
	for _, s := range t.RestStops {
		resp.RestStops = append(resp.RestStops, RestStopResponse{
			Sequence:               s.Sequence,
			Type:                   string(s.Type),
			RequiredHours:          roundHours(s.RequiredDuration.Hours()),
			Lat:                    s.Coordinates.Lat,
			Lng:                    s.Coordinates.Lng,
			DistanceFromStartMiles: s.DistanceFromStartMiles,
			HoursDrivenBefore:      s.HoursDrivenBefore,
			HoursOnDutyBefore:      s.HoursOnDutyBefore,
		})
	}
	for _, s := range t.FuelStops {
		resp.FuelStops = append(resp.FuelStops, FuelStopResponse{
			Sequence:               s.Sequence,
			DistanceFromStartMiles: s.DistanceFromStartMiles,
			Lat:                    s.Coordinates.Lat,
			Lng:                    s.Coordinates.Lng,
			DurationMinutes:        s.Duration.Minutes(),
		})
	}
	return resp
}

// PlanTrip handles POST /v1/trips/plan
func (h *TripHandler) PlanTrip(c *gin.Context) {
	var req PlanTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.DriverID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "driver_id is required"})
		return
	}

	in := service.PlanTripRequest{
		DriverID:         req.DriverID,
		Name:             req.Name,
		CurrentLocation:  req.CurrentLocation.toDomain(),
		PickupLocation:   req.PickupLocation.toDomain(),
		DropoffLocation:  req.DropoffLocation.toDomain(),
		CurrentCycleUsed: req.CurrentCycleUsed,
	}
	if req.PlannedStart != nil {
		in.PlannedStart = *req.PlannedStart
	}

	result, err := h.tripService.PlanTrip(requestContext(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, PlanTripResponse{
		Trip:             tripResponse(result.Trip),
		DailyLogs:        logResponses(result.Days),
		Violations:       violationResponses(result.Violations),
		RouteSource:      string(result.RouteSource),
		RestDaysInserted: result.RestDaysInserted,
	})
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// ListTrips handles GET /v1/trips?driver_id=
func (h *TripHandler) ListTrips(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(requestContext(c), c.Query("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		resp = append(resp, tripResponse(t))
	}
	respondJSON(c, http.StatusOK, resp)
}

// StartTrip handles POST /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	trip, err := h.tripService.StartTrip(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// CompleteTrip handles POST /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	trip, err := h.tripService.CompleteTrip(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}
