package hos

import (
	"math"

	"trucklog/internal/domain"
)

// StopPlan is the set of rest and fuel stops along a route.
type StopPlan struct {
	RestStops []domain.RestStop
	FuelStops []domain.FuelStop
}

// RestStopPlanner annotates a route with mandated rest and fuel stops.
type RestStopPlanner struct{}

// Plan walks the route's driving hours in 8-hour increments at 55 mph. At each
// mark the stop is a restart when the next segment would exceed the driver's
// cycle limit, a daily rest when driving or the duty window at the mark has
// reached 11 or 14 hours, otherwise a meal break.
func (RestStopPlanner) Plan(p TripParameters) (*StopPlan, error) {
	if p.Route == nil {
		return nil, ErrMissingRoute
	}
	if err := ValidateCycleUsed(p.CurrentCycleUsed); err != nil {
		return nil, err
	}
	hours := p.Route.DurationHours()
	miles := p.Route.DistanceMiles()
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 || hours > MaxTripHours {
		return nil, &ValidationError{Field: "total_trip_hours", Value: hours, Reason: "must be between 0 and 330"}
	}

	plan := &StopPlan{}
	limit := p.Driver.EffectiveCycle().LimitHours()
	var (
		driven    float64
		dayDrive  float64
		dayWindow float64
		cycleUsed = p.CurrentCycleUsed
	)
	for driven+MaxContinuousDrive < hours {
		driven += MaxContinuousDrive
		dayDrive += MaxContinuousDrive
		dayWindow += MaxContinuousDrive
		cycleUsed += MaxContinuousDrive

		distance := driven * AverageSpeedMPH
		if distance >= miles {
			break
		}
		next := math.Min(MaxContinuousDrive, hours-driven)

		stop := domain.RestStop{
			Sequence:               len(plan.RestStops) + 1,
			Coordinates:            p.Route.PositionAt(distance),
			DistanceFromStartMiles: round2(distance),
			HoursDrivenBefore:      round2(dayDrive),
			HoursOnDutyBefore:      round2(dayWindow),
		}
		switch {
		case cycleUsed+next > limit:
			stop.Type = domain.RestStopRestart
			stop.RequiredDuration = RestartDuration
			cycleUsed, dayDrive, dayWindow = 0, 0, 0
		case dayDrive >= MaxDrivingHours || dayWindow >= MaxDutyWindowHours:
			stop.Type = domain.RestStopDailyRest
			stop.RequiredDuration = DailyRestDuration
			dayDrive, dayWindow = 0, 0
		default:
			stop.Type = domain.RestStopMealBreak
			stop.RequiredDuration = MealBreakDuration
			dayWindow += MealBreakDuration.Hours()
		}
		plan.RestStops = append(plan.RestStops, stop)
	}

	if miles > FuelIntervalMiles {
		for i := 1; float64(i)*FuelIntervalMiles < miles; i++ {
			distance := float64(i) * FuelIntervalMiles
			plan.FuelStops = append(plan.FuelStops, domain.FuelStop{
				Sequence:               i,
				DistanceFromStartMiles: distance,
				Coordinates:            p.Route.PositionAt(distance),
				Duration:               FuelStopDuration,
			})
		}
	}
	return plan, nil
}
