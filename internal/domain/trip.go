package domain

import "time"

// TripStatus represents the current status of a planned trip.
type TripStatus string

const (
	TripStatusPlanned    TripStatus = "planned"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// RestStopType is the kind of mandated rest along a route.
type RestStopType string

const (
	RestStopMealBreak RestStopType = "meal_break"
	RestStopDailyRest RestStopType = "daily_rest"
	RestStopRestart   RestStopType = "restart"
)

// RestStop is a planned rest along a trip.
type RestStop struct {
	Sequence               int
	Type                   RestStopType
	RequiredDuration       time.Duration
	Coordinates            Coordinates
	DistanceFromStartMiles float64
	HoursDrivenBefore      float64
	HoursOnDutyBefore      float64
}

// FuelStop is a planned refuelling point along a trip.
type FuelStop struct {
	Sequence               int
	DistanceFromStartMiles float64
	Coordinates            Coordinates
	Duration               time.Duration
}

// Trip represents a planned or executed multi-day trip.
type Trip struct {
	ID                     string
	DriverID               string
	Name                   string
	Status                 TripStatus
	CurrentLocation        Location
	PickupLocation         Location
	DropoffLocation        Location
	CurrentCycleUsed       float64
	TotalDistanceMiles     float64
	EstimatedDurationHours float64
	PlannedStart           time.Time
	PlannedEnd             time.Time
	ActualStart            time.Time
	ActualEnd              time.Time
	RestStops              []RestStop
	FuelStops              []FuelStop
	CreatedAt              time.Time
}
