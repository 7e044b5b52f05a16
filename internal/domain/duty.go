package domain

import "time"

// DutyStatus represents one of the four mutually exclusive ELD duty statuses.
type DutyStatus string

const (
	DutyStatusOffDuty          DutyStatus = "off_duty"
	DutyStatusSleeperBerth     DutyStatus = "sleeper_berth"
	DutyStatusDriving          DutyStatus = "driving"
	DutyStatusOnDutyNotDriving DutyStatus = "on_duty_not_driving"
)

// dutyStatusRules is the fixed regulatory lookup table for each status.
var dutyStatusRules = map[DutyStatus]struct {
	label               string
	countsTowardDriving bool
	countsTowardDuty    bool
}{
	DutyStatusOffDuty:          {"Off Duty", false, false},
	DutyStatusSleeperBerth:     {"Sleeper Berth", false, false},
	DutyStatusDriving:          {"Driving", true, true},
	DutyStatusOnDutyNotDriving: {"On Duty (Not Driving)", false, true},
}

// DutyStatuses lists every status in log-sheet line order.
var DutyStatuses = []DutyStatus{
	DutyStatusOffDuty,
	DutyStatusSleeperBerth,
	DutyStatusDriving,
	DutyStatusOnDutyNotDriving,
}

// IsValid returns true if the status is a recognized value.
func (s DutyStatus) IsValid() bool {
	_, ok := dutyStatusRules[s]
	return ok
}

// Label returns the human-readable name of the status.
func (s DutyStatus) Label() string {
	return dutyStatusRules[s].label
}

// CountsTowardDriving reports whether time in this status is driving time.
func (s DutyStatus) CountsTowardDriving() bool {
	return dutyStatusRules[s].countsTowardDriving
}

// CountsTowardDuty reports whether time in this status is on-duty time.
func (s DutyStatus) CountsTowardDuty() bool {
	return dutyStatusRules[s].countsTowardDuty
}

// IntervalOrigin records whether an interval was system-generated or entered by the driver.
type IntervalOrigin string

const (
	IntervalOriginAutomatic IntervalOrigin = "automatic"
	IntervalOriginManual    IntervalOrigin = "manual"
)

// Coordinates is a geographic position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Location is a free-text place with optional coordinates.
type Location struct {
	Name   string
	Coords *Coordinates
}

// DutyInterval is one duty-status period inside a DailyLog.
type DutyInterval struct {
	ID        string
	LogID     string
	Status    DutyStatus
	Start     time.Time
	End       time.Time // Zero while the interval is open
	Location  Location
	Odometer  *int
	Notes     string
	Origin    IntervalOrigin
	CreatedAt time.Time
}

// IsOpen reports whether the interval has no end yet.
func (i *DutyInterval) IsOpen() bool {
	return i.End.IsZero()
}

// Duration returns End - Start for a closed interval. ok is false while open.
func (i *DutyInterval) Duration() (d time.Duration, ok bool) {
	if i.IsOpen() {
		return 0, false
	}
	return i.End.Sub(i.Start), true
}
