package hos

import (
	"fmt"
	"math"
	"time"

	"trucklog/internal/domain"
)

// DetectInput is the context the detector evaluates a log against.
type DetectInput struct {
	Driver  *domain.Driver
	History History // Other days of the same driver; the evaluated log is overlaid
}

// Detector evaluates one daily log against the HOS rules.
// It is a pure check: it never mutates the log and never reads the wall clock.
type Detector struct {
	cycle CycleCalculator
}

// NewDetector creates a new violation detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns one violation per triggered rule, in a fixed rule order.
// Returned violations carry no ID or CreatedAt; the caller assigns them.
func (d *Detector) Detect(log *domain.DailyLog, in DetectInput) []*domain.Violation {
	var out []*domain.Violation
	for _, rule := range []func(*domain.DailyLog, DetectInput) *domain.Violation{
		d.checkDrive,
		d.checkDutyWindow,
		d.checkCycle,
		d.checkRestBreak,
		d.checkDailyRest,
	} {
		if v := rule(log, in); v != nil {
			v.LogID = log.ID
			v.DriverID = log.DriverID
			out = append(out, v)
		}
	}
	return out
}

func (d *Detector) checkDrive(log *domain.DailyLog, _ DetectInput) *domain.Violation {
	var (
		drive   time.Duration
		lastEnd time.Time
	)
	for _, iv := range log.Intervals {
		dur, ok := iv.Duration()
		if !ok || !iv.Status.CountsTowardDriving() {
			continue
		}
		drive += dur
		lastEnd = iv.End
	}
	actual := drive.Hours()
	if actual <= MaxDrivingHours {
		return nil
	}
	return &domain.Violation{
		Type:        domain.ViolationDrive11h,
		Severity:    domain.SeverityViolation,
		ActualValue: round2(actual),
		LimitValue:  MaxDrivingHours,
		Description: fmt.Sprintf("Driving time %.2f hours exceeds the %.0f-hour limit", actual, MaxDrivingHours),
		DetectedAt:  lastEnd,
	}
}

func (d *Detector) checkDutyWindow(log *domain.DailyLog, _ DetectInput) *domain.Violation {
	duty := closedDutyIntervals(log)
	if len(duty) == 0 {
		return nil
	}
	first := duty[0].Start
	last, _ := lastDutyEnd(log)
	actual := last.Sub(first).Hours()
	if actual <= MaxDutyWindowHours {
		return nil
	}
	return &domain.Violation{
		Type:        domain.ViolationDuty14h,
		Severity:    domain.SeverityViolation,
		ActualValue: round2(actual),
		LimitValue:  MaxDutyWindowHours,
		Description: fmt.Sprintf("On-duty window %.2f hours exceeds the %.0f-hour limit", actual, MaxDutyWindowHours),
		DetectedAt:  last,
	}
}

// checkCycle fires on days with on-duty time, closed or still open; a rest
// day cannot breach the cycle. The finding is dated at the last closed duty
// end, or at the open interval's start while nothing has closed yet.
func (d *Detector) checkCycle(log *domain.DailyLog, in DetectInput) *domain.Violation {
	last, ok := lastDutyEnd(log)
	if !ok {
		open := log.OpenInterval()
		if open == nil || !open.Status.CountsTowardDuty() {
			return nil
		}
		last = open.Start
	}
	cycle := in.Driver.EffectiveCycle()
	actual := d.cycle.HoursUsed(cycle, in.History.With(log), log.LogDate)
	limit := cycle.LimitHours()
	if actual <= limit {
		return nil
	}
	typ := domain.ViolationCycle70h
	if cycle == domain.CycleType60Hour7Day {
		typ = domain.ViolationCycle60h
	}
	return &domain.Violation{
		Type:        typ,
		Severity:    domain.SeverityCritical,
		ActualValue: round2(actual),
		LimitValue:  limit,
		Description: fmt.Sprintf("Cycle on-duty time %.2f hours exceeds the %.0f-hour/%d-day limit",
			actual, limit, cycle.WindowDays()),
		DetectedAt: last,
	}
}

// checkRestBreak accumulates driving across consecutive driving intervals.
// A gap of at least 30 minutes between two driving intervals resets the run;
// shorter gaps neither reset it nor add to it.
func (d *Detector) checkRestBreak(log *domain.DailyLog, _ DetectInput) *domain.Violation {
	var (
		run, maxRun time.Duration
		prevEnd     time.Time
		exceededAt  time.Time
	)
	for _, iv := range log.Intervals {
		dur, ok := iv.Duration()
		if !ok || iv.Status != domain.DutyStatusDriving {
			continue
		}
		if !prevEnd.IsZero() && iv.Start.Sub(prevEnd) >= QualifyingBreak {
			run = 0
		}
		run += dur
		prevEnd = iv.End
		if run > maxRun {
			maxRun = run
		}
		if exceededAt.IsZero() && run.Hours() > MaxContinuousDrive {
			exceededAt = iv.End
		}
	}
	if exceededAt.IsZero() {
		return nil
	}
	actual := maxRun.Hours()
	return &domain.Violation{
		Type:        domain.ViolationRestBreak,
		Severity:    domain.SeverityViolation,
		ActualValue: round2(actual),
		LimitValue:  MaxContinuousDrive,
		Description: fmt.Sprintf("%.2f hours of driving without a 30-minute break (limit %.0f hours)",
			actual, MaxContinuousDrive),
		DetectedAt: exceededAt,
	}
}

func (d *Detector) checkDailyRest(log *domain.DailyLog, in DetectInput) *domain.Violation {
	prev := in.History.Previous(log)
	if prev == nil {
		return nil
	}
	prevEnd, ok := lastDutyEnd(prev)
	if !ok {
		return nil
	}
	start, ok := firstDutyStart(log)
	if !ok {
		return nil
	}
	actual := start.Sub(prevEnd).Hours()
	if actual >= MinDailyRestHours {
		return nil
	}
	return &domain.Violation{
		Type:        domain.ViolationDailyRest,
		Severity:    domain.SeverityViolation,
		ActualValue: round2(actual),
		LimitValue:  MinDailyRestHours,
		Description: fmt.Sprintf("Only %.2f hours of rest before the duty day (minimum %.0f hours)",
			actual, MinDailyRestHours),
		DetectedAt: start,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
