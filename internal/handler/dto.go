package handler

import (
	"trucklog/internal/domain"
)

// LocationPayload is a named place with optional coordinates.
type LocationPayload struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

func (p LocationPayload) toDomain() domain.Location {
	l := domain.Location{Name: p.Name}
	if p.Lat != nil && p.Lng != nil {
		l.Coords = &domain.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
	}
	return l
}

func locationPayload(l domain.Location) LocationPayload {
	p := LocationPayload{Name: l.Name}
	if l.Coords != nil {
		lat, lng := l.Coords.Lat, l.Coords.Lng
		p.Lat, p.Lng = &lat, &lng
	}
	return p
}

// IntervalResponse is the HTTP shape of a duty interval.
type IntervalResponse struct {
	ID            string          `json:"id"`
	Status        string          `json:"duty_status"`
	StatusLabel   string          `json:"duty_status_display"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time,omitempty"`
	DurationHours *float64        `json:"duration_hours,omitempty"`
	Location      LocationPayload `json:"location"`
	Odometer      *int            `json:"odometer,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Origin        string          `json:"origin"`
}

func intervalResponse(iv *domain.DutyInterval) IntervalResponse {
	r := IntervalResponse{
		ID:          iv.ID,
		Status:      string(iv.Status),
		StatusLabel: iv.Status.Label(),
		StartTime:   formatTime(iv.Start),
		EndTime:     formatTime(iv.End),
		Location:    locationPayload(iv.Location),
		Odometer:    iv.Odometer,
		Notes:       iv.Notes,
		Origin:      string(iv.Origin),
	}
	if d, ok := iv.Duration(); ok {
		h := roundHours(d.Hours())
		r.DurationHours = &h
	}
	return r
}

// ViolationResponse is the HTTP shape of a violation.
type ViolationResponse struct {
	ID              string  `json:"id"`
	LogID           string  `json:"log_id"`
	DriverID        string  `json:"driver_id"`
	Type            string  `json:"violation_type"`
	Severity        string  `json:"severity"`
	ActualValue     float64 `json:"actual_value"`
	LimitValue      float64 `json:"limit_value"`
	Description     string  `json:"description"`
	DetectedAt      string  `json:"detected_at"`
	Resolved        bool    `json:"is_resolved"`
	ResolutionNotes string  `json:"resolution_notes,omitempty"`
}

func violationResponse(v *domain.Violation) ViolationResponse {
	return ViolationResponse{
		ID:              v.ID,
		LogID:           v.LogID,
		DriverID:        v.DriverID,
		Type:            string(v.Type),
		Severity:        string(v.Severity),
		ActualValue:     v.ActualValue,
		LimitValue:      v.LimitValue,
		Description:     v.Description,
		DetectedAt:      formatTime(v.DetectedAt),
		Resolved:        v.Resolved,
		ResolutionNotes: v.ResolutionNotes,
	}
}

func violationResponses(vs []*domain.Violation) []ViolationResponse {
	out := make([]ViolationResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, violationResponse(v))
	}
	return out
}

// LogResponse is the HTTP shape of a daily log.
type LogResponse struct {
	ID                  string              `json:"id"`
	DriverID            string              `json:"driver_id"`
	TripID              string              `json:"trip_id,omitempty"`
	LogDate             string              `json:"log_date"`
	VehicleID           string              `json:"vehicle_id,omitempty"`
	State               string              `json:"state"`
	TotalDrivingHours   float64             `json:"total_driving_hours"`
	TotalOnDutyHours    float64             `json:"total_on_duty_hours"`
	TotalOffDutyHours   float64             `json:"total_off_duty_hours"`
	TotalSleeperHours   float64             `json:"total_sleeper_berth_hours"`
	HasDrivingViolation bool                `json:"has_driving_violation"`
	HasDutyViolation    bool                `json:"has_duty_violation"`
	IsCertified         bool                `json:"is_certified"`
	CertifiedAt         string              `json:"certified_at,omitempty"`
	Intervals           []IntervalResponse  `json:"duty_status_records"`
	Violations          []ViolationResponse `json:"violations"`
}

func logResponse(l *domain.DailyLog) LogResponse {
	r := LogResponse{
		ID:                  l.ID,
		DriverID:            l.DriverID,
		TripID:              l.TripID,
		LogDate:             l.Key(),
		VehicleID:           l.VehicleID,
		State:               string(l.State),
		TotalDrivingHours:   roundHours(l.TotalDrive.Hours()),
		TotalOnDutyHours:    roundHours(l.TotalDuty.Hours()),
		TotalOffDutyHours:   roundHours(l.TotalOffDuty.Hours()),
		TotalSleeperHours:   roundHours(l.TotalSleeper.Hours()),
		HasDrivingViolation: l.HasDrivingViolation,
		HasDutyViolation:    l.HasDutyViolation,
		IsCertified:         l.IsCertified,
		CertifiedAt:         formatTime(l.CertifiedAt),
		Intervals:           make([]IntervalResponse, 0, len(l.Intervals)),
		Violations:          violationResponses(l.Violations),
	}
	for _, iv := range l.Intervals {
		r.Intervals = append(r.Intervals, intervalResponse(iv))
	}
	return r
}

func logResponses(logs []*domain.DailyLog) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, logResponse(l))
	}
	return out
}

func roundHours(h float64) float64 {
	return float64(int64(h*100+0.5)) / 100
}
