package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
	"trucklog/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CycleType     string `json:"cycle_type"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	CycleType     string `json:"cycle_type"`
	CreatedAt     string `json:"created_at"`
}

// HOSStatusResponse is the HTTP response for a driver's remaining hours.
type HOSStatusResponse struct {
	DriverID              string  `json:"driver_id"`
	At                    string  `json:"as_of"`
	CycleType             string  `json:"cycle_type"`
	CurrentStatus         string  `json:"current_status,omitempty"`
	DailyDrivingUsed      float64 `json:"daily_driving_used"`
	DailyDrivingAvailable float64 `json:"daily_driving_available"`
	DailyDutyUsed         float64 `json:"daily_duty_used"`
	DailyDutyAvailable    float64 `json:"daily_duty_available"`
	CycleUsed             float64 `json:"cycle_used"`
	CycleAvailable        float64 `json:"cycle_available"`
	CycleLimit            float64 `json:"cycle_limit"`
	NeedsBreakSoon        bool    `json:"needs_break_soon"`
	NeedsDailyRest        bool    `json:"needs_daily_rest"`
}

func driverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		Phone:         d.Phone,
		Email:         d.Email,
		CycleType:     string(d.EffectiveCycle()),
		CreatedAt:     formatTime(d.CreatedAt),
	}
}

func hosStatusResponse(driverID string, st *hos.Status) HOSStatusResponse {
	return HOSStatusResponse{
		DriverID:              driverID,
		At:                    formatTime(st.At),
		CycleType:             string(st.CycleType),
		CurrentStatus:         string(st.CurrentStatus),
		DailyDrivingUsed:      st.DailyDrivingUsed,
		DailyDrivingAvailable: st.DailyDrivingAvailable,
		DailyDutyUsed:         st.DailyDutyUsed,
		DailyDutyAvailable:    st.DailyDutyAvailable,
		CycleUsed:             st.CycleUsed,
		CycleAvailable:        st.CycleAvailable,
		CycleLimit:            st.CycleLimit,
		NeedsBreakSoon:        st.NeedsBreakSoon,
		NeedsDailyRest:        st.NeedsDailyRest,
	}
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	driver, err := h.driverService.Register(requestContext(c), service.RegisterDriverRequest{
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Phone:         req.Phone,
		Email:         req.Email,
		CycleType:     req.CycleType,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, driverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// ListDrivers handles GET /v1/drivers
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.driverService.ListDrivers(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		resp = append(resp, driverResponse(d))
	}
	respondJSON(c, http.StatusOK, resp)
}

// HOSStatus handles GET /v1/drivers/:id/hos-status
func (h *DriverHandler) HOSStatus(c *gin.Context) {
	driverID := c.Param("id")

	st, err := h.driverService.HOSStatus(requestContext(c), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, hosStatusResponse(driverID, st))
}
