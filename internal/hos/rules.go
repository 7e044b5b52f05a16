package hos

import "time"

// Federal property-carrying HOS limits.
const (
	MaxDrivingHours     = 11.0
	MaxDutyWindowHours  = 14.0
	MaxContinuousDrive  = 8.0
	MinDailyRestHours   = 10.0
	MaxCycleHours       = 70.0
	RestartHours        = 34.0
	BreakSoonThreshold  = 7.0
	DailyRestThreshold  = 13.0
	AverageSpeedMPH     = 55.0
	FuelIntervalMiles   = 1000.0
	QualifyingBreak     = 30 * time.Minute
	InspectionDuration  = 15 * time.Minute
	PickupDuration      = time.Hour
	DropoffDuration     = time.Hour
	FuelStopDuration    = 30 * time.Minute
	MealBreakDuration   = 30 * time.Minute
	DailyRestDuration   = 10 * time.Hour
	RestartDuration     = 34 * time.Hour
	tripDayStartHour    = 6
	firstDayDriveBlock  = 7.0
	laterDayDriveBlock  = 8.0
	secondDriveBlockMax = 3.0
)

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour)).Truncate(time.Second)
}
