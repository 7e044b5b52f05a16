package domain

import (
	"errors"
	"time"
)

// ViolationType identifies the HOS rule that was broken.
type ViolationType string

const (
	ViolationDrive11h  ViolationType = "drive_11h"
	ViolationDuty14h   ViolationType = "duty_14h"
	ViolationCycle70h  ViolationType = "cycle_70h"
	ViolationCycle60h  ViolationType = "cycle_60h"
	ViolationRestBreak ViolationType = "rest_break"
	ViolationDailyRest ViolationType = "daily_rest"
)

// IsValid returns true if the violation type is recognized.
func (t ViolationType) IsValid() bool {
	switch t {
	case ViolationDrive11h, ViolationDuty14h, ViolationCycle70h,
		ViolationCycle60h, ViolationRestBreak, ViolationDailyRest:
		return true
	}
	return false
}

// Severity grades a violation.
type Severity string

const (
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
	SeverityCritical  Severity = "critical"
)

// IsValid returns true if the severity is recognized.
func (s Severity) IsValid() bool {
	return s == SeverityWarning || s == SeverityViolation || s == SeverityCritical
}

// ErrViolationAlreadyResolved is returned when resolving a resolved violation.
var ErrViolationAlreadyResolved = errors.New("violation already resolved")

// Violation is a detected breach of an HOS rule on one daily log.
type Violation struct {
	ID              string
	LogID           string
	DriverID        string
	Type            ViolationType
	Severity        Severity
	ActualValue     float64
	LimitValue      float64
	Description     string
	DetectedAt      time.Time
	Resolved        bool
	ResolutionNotes string
	CreatedAt       time.Time
}

// Resolve marks the violation resolved. Resolution is write-once.
func (v *Violation) Resolve(notes string) error {
	if v.Resolved {
		return ErrViolationAlreadyResolved
	}
	v.Resolved = true
	v.ResolutionNotes = notes
	return nil
}

// SameFinding reports whether two violations describe the same detection result.
// IDs and creation times are ignored.
func (v *Violation) SameFinding(o *Violation) bool {
	return v.Type == o.Type &&
		v.Severity == o.Severity &&
		v.ActualValue == o.ActualValue &&
		v.LimitValue == o.LimitValue &&
		v.Description == o.Description &&
		v.DetectedAt.Equal(o.DetectedAt)
}
