package domain

import "time"

// CycleType is the rolling on-duty limit a driver operates under.
type CycleType string

const (
	CycleType70Hour8Day CycleType = "70_8"
	CycleType60Hour7Day CycleType = "60_7"
)

// IsValid returns true if the cycle type is recognized.
func (c CycleType) IsValid() bool {
	return c == CycleType70Hour8Day || c == CycleType60Hour7Day
}

// WindowDays returns the length of the rolling window in calendar days.
func (c CycleType) WindowDays() int {
	if c == CycleType60Hour7Day {
		return 7
	}
	return 8
}

// LimitHours returns the on-duty limit for the window.
func (c CycleType) LimitHours() float64 {
	if c == CycleType60Hour7Day {
		return 60
	}
	return 70
}

// Driver represents a commercial driver subject to HOS rules.
type Driver struct {
	ID            string
	Name          string
	LicenseNumber string
	Phone         string
	Email         string
	CycleType     CycleType
	CreatedAt     time.Time
}

// EffectiveCycle returns the driver's cycle type, defaulting to 70/8.
func (d *Driver) EffectiveCycle() CycleType {
	if d == nil || !d.CycleType.IsValid() {
		return CycleType70Hour8Day
	}
	return d.CycleType
}
