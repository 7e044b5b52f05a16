package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidDriverName is returned when a driver is registered without a name.
	ErrInvalidDriverName = errors.New("invalid driver name")

	// ErrInvalidCycleType is returned when the cycle type is not 70_8 or 60_7.
	ErrInvalidCycleType = errors.New("invalid cycle type")

	// ErrInvalidLogID is returned when log ID is empty.
	ErrInvalidLogID = errors.New("invalid log id")

	// ErrInvalidLogDate is returned when a log date cannot be parsed.
	ErrInvalidLogDate = errors.New("invalid log date")

	// ErrInvalidDateRange is returned when a listing range is inverted or too wide.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidViolationID is returned when violation ID is empty.
	ErrInvalidViolationID = errors.New("invalid violation id")

	// ErrInvalidLocation is returned when a trip location has neither a name nor valid coordinates.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidViolationFilter is returned when a listing filter names an unknown type or severity.
	ErrInvalidViolationFilter = errors.New("invalid violation filter")

	// ErrDriverDayBusy is returned when another mutation holds the driver-day lock.
	ErrDriverDayBusy = errors.New("driver day is being modified")

	// ErrLogExists is returned when opening a log for a driver-day that already has one.
	ErrLogExists = errors.New("log already exists for this driver and date")

	// ErrScheduleConflict is returned when a planned trip overlaps days the driver already logged.
	ErrScheduleConflict = errors.New("planned schedule conflicts with existing logs")

	// ErrDriverHasActiveTrip is returned when driver already has an active trip.
	ErrDriverHasActiveTrip = errors.New("driver already has an active trip")

	// ErrTripNotPlanned is returned when starting a trip that is not in the planned state.
	ErrTripNotPlanned = errors.New("trip not planned")

	// ErrTripNotInProgress is returned when completing a trip that has not started.
	ErrTripNotInProgress = errors.New("trip not in progress")
)
