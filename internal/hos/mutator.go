package hos

import (
	"time"

	"github.com/google/uuid"

	"trucklog/internal/domain"
)

// AppendInput describes a real-time duty status change.
type AppendInput struct {
	Status   domain.DutyStatus
	Start    time.Time
	Location domain.Location
	Notes    string
	Odometer *int
	Origin   domain.IntervalOrigin // Defaults to manual
}

// ClosedInput describes a fully known interval written in one pass.
type ClosedInput struct {
	Status   domain.DutyStatus
	Start    time.Time
	End      time.Time
	Location domain.Location
	Notes    string
	Origin   domain.IntervalOrigin // Defaults to automatic
}

// Mutator is the only write path into a daily log's timeline.
// Callers must serialize mutations per driver-day.
type Mutator struct {
	detector *Detector
	newID    func() string
	now      func() time.Time
}

// NewMutator creates a mutator backed by the given detector.
func NewMutator(detector *Detector) *Mutator {
	if detector == nil {
		detector = NewDetector()
	}
	return &Mutator{
		detector: detector,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for CreatedAt stamps.
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// AppendStatus records a status change. An open interval is closed at in.Start.
// Aggregates are recomputed and the detector runs; newly found violations are
// attached to the log and returned.
func (m *Mutator) AppendStatus(log *domain.DailyLog, in AppendInput, detect DetectInput) (*domain.DutyInterval, []*domain.Violation, error) {
	if in.Origin == "" {
		in.Origin = domain.IntervalOriginManual
	}
	iv, err := m.insert(log, in.Status, in.Start, time.Time{}, in.Location, in.Notes, in.Origin)
	if err != nil {
		return nil, nil, err
	}
	iv.Odometer = in.Odometer

	added := m.Finalize(log, detect)
	return iv, added, nil
}

// AppendClosed inserts a closed interval without running detection.
func (m *Mutator) AppendClosed(log *domain.DailyLog, in ClosedInput) (*domain.DutyInterval, error) {
	if !in.End.After(in.Start) {
		return nil, transitionErr(log, in.End, in.Start, "interval must end after it starts")
	}
	if in.End.After(log.DayEnd()) {
		return nil, transitionErr(log, in.End, log.DayEnd(), "interval ends after the log day")
	}
	if in.Origin == "" {
		in.Origin = domain.IntervalOriginAutomatic
	}
	return m.insert(log, in.Status, in.Start, in.End, in.Location, in.Notes, in.Origin)
}

// CloseOpen closes the open interval at end.
func (m *Mutator) CloseOpen(log *domain.DailyLog, end time.Time) error {
	open := log.OpenInterval()
	if open == nil {
		return transitionErr(log, end, time.Time{}, "log has no open interval")
	}
	if !end.After(open.Start) {
		return transitionErr(log, end, open.Start, "end must be after the open interval's start")
	}
	if end.After(log.DayEnd()) {
		return transitionErr(log, end, log.DayEnd(), "end is after the log day")
	}
	open.End = end
	log.State = domain.TimelineSettled
	m.touch(log)
	return nil
}

// CloseDay closes an open interval at the midnight ending the log's day.
// A log without an open interval is left unchanged.
func (m *Mutator) CloseDay(log *domain.DailyLog) error {
	if log.OpenInterval() == nil {
		return nil
	}
	return m.CloseOpen(log, log.DayEnd())
}

// Finalize runs detection once, attaches new findings, and sets the
// violation flags from the detector output.
func (m *Mutator) Finalize(log *domain.DailyLog, detect DetectInput) []*domain.Violation {
	found := m.detector.Detect(log, detect)

	log.HasDrivingViolation = false
	log.HasDutyViolation = false
	var added []*domain.Violation
	for _, v := range found {
		switch v.Type {
		case domain.ViolationDrive11h:
			log.HasDrivingViolation = true
		case domain.ViolationDuty14h:
			log.HasDutyViolation = true
		}
		if alreadyRecorded(log, v) {
			continue
		}
		v.ID = m.newID()
		v.CreatedAt = m.now()
		log.Violations = append(log.Violations, v)
		added = append(added, v)
	}
	return added
}

// Certify sets the certification flag. Certification is write-once.
func (m *Mutator) Certify(log *domain.DailyLog, at time.Time) error {
	if log.IsCertified {
		return ErrAlreadyCertified
	}
	if log.OpenInterval() != nil {
		return transitionErr(log, at, log.OpenInterval().Start, "cannot certify a log with an open interval")
	}
	log.IsCertified = true
	log.CertifiedAt = at
	log.UpdatedAt = at
	return nil
}

func (m *Mutator) insert(log *domain.DailyLog, status domain.DutyStatus, start, end time.Time,
	loc domain.Location, notes string, origin domain.IntervalOrigin) (*domain.DutyInterval, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Field: "duty_status", Value: string(status), Reason: "unknown duty status"}
	}
	if log.IsCertified {
		return nil, transitionErr(log, start, log.CertifiedAt, "log is certified")
	}
	if start.Before(log.LogDate) || !start.Before(log.DayEnd()) {
		return nil, transitionErr(log, start, log.LogDate, "start is outside the log day")
	}

	if last := log.LastInterval(); last != nil {
		if !start.After(last.Start) {
			return nil, transitionErr(log, start, last.Start, "start must be after the previous interval's start")
		}
		if !last.IsOpen() && start.Before(last.End) {
			return nil, transitionErr(log, start, last.End, "start overlaps the previous interval")
		}
		if last.IsOpen() {
			last.End = start
		}
	}

	iv := &domain.DutyInterval{
		ID:        m.newID(),
		LogID:     log.ID,
		Status:    status,
		Start:     start,
		End:       end,
		Location:  loc,
		Notes:     notes,
		Origin:    origin,
		CreatedAt: m.now(),
	}
	log.Intervals = append(log.Intervals, iv)
	if iv.IsOpen() {
		log.State = domain.TimelineHasOpenInterval
	} else {
		log.State = domain.TimelineSettled
	}
	m.touch(log)
	return iv, nil
}

func (m *Mutator) touch(log *domain.DailyLog) {
	Recompute(log)
	log.UpdatedAt = m.now()
}

// alreadyRecorded applies the de-duplication policy: at most one unresolved
// violation per rule per log, and a resolved finding is not raised again
// unless its content changes.
func alreadyRecorded(log *domain.DailyLog, v *domain.Violation) bool {
	for _, existing := range log.Violations {
		if existing.Type != v.Type {
			continue
		}
		if !existing.Resolved || existing.SameFinding(v) {
			return true
		}
	}
	return false
}
