package hos_test

import (
	"errors"
	"testing"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/hos"
)

func TestAppendStatus_ClosesOpenInterval(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := newLog(t, "log-1", day0)
	in := hos.DetectInput{Driver: driver708}

	first, _, err := m.AppendStatus(log, hos.AppendInput{Status: domain.DutyStatusOnDutyNotDriving, Start: at(day0, 6, 0)}, in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if log.State != domain.TimelineHasOpenInterval {
		t.Errorf("expected state %s, got %s", domain.TimelineHasOpenInterval, log.State)
	}
	if _, ok := first.Duration(); ok {
		t.Error("expected open interval to have no duration")
	}

	_, _, err = m.AppendStatus(log, hos.AppendInput{Status: domain.DutyStatusDriving, Start: at(day0, 6, 30)}, in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !first.End.Equal(at(day0, 6, 30)) {
		t.Errorf("expected first interval closed at 06:30, got %v", first.End)
	}
	if log.TotalDuty != 30*time.Minute {
		t.Errorf("expected 30m duty, got %v", log.TotalDuty)
	}
	if log.TotalDrive != 0 {
		t.Errorf("expected no closed driving yet, got %v", log.TotalDrive)
	}
	if len(log.Intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(log.Intervals))
	}
	if log.Intervals[1].Origin != domain.IntervalOriginManual {
		t.Errorf("expected manual origin, got %s", log.Intervals[1].Origin)
	}
}

func TestAppendStatus_RejectsOutOfOrderWrites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []span
		start time.Time
	}{
		{
			name:  "same start as previous",
			setup: []span{{domain.DutyStatusOffDuty, 0, 0, 6, 0}},
			start: at(day0, 0, 0),
		},
		{
			name:  "before previous start",
			setup: []span{{domain.DutyStatusOffDuty, 2, 0, 6, 0}},
			start: at(day0, 1, 0),
		},
		{
			name:  "overlaps closed interval",
			setup: []span{{domain.DutyStatusOffDuty, 0, 0, 6, 0}},
			start: at(day0, 5, 0),
		},
		{
			name:  "outside the log day",
			start: at(day0, 25, 0),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := hos.NewMutator(nil)
			log := buildLog(t, m, "log-1", day0, tt.setup...)
			before := len(log.Intervals)

			_, _, err := m.AppendStatus(log, hos.AppendInput{Status: domain.DutyStatusDriving, Start: tt.start}, hos.DetectInput{Driver: driver708})

			if !errors.Is(err, hos.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			var te *hos.TransitionError
			if !errors.As(err, &te) || te.LogID != "log-1" {
				t.Errorf("expected TransitionError for log-1, got %#v", err)
			}
			if len(log.Intervals) != before {
				t.Errorf("expected no interval added, got %d", len(log.Intervals))
			}
		})
	}
}

func TestAppendStatus_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := newLog(t, "log-1", day0)

	_, _, err := m.AppendStatus(log, hos.AppendInput{Status: "yard_move", Start: at(day0, 6, 0)}, hos.DetectInput{})

	if !errors.Is(err, hos.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(log.Intervals) != 0 {
		t.Error("expected no mutation")
	}
}

func TestParseDutyStatus(t *testing.T) {
	t.Parallel()

	for _, s := range domain.DutyStatuses {
		got, err := hos.ParseDutyStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseDutyStatus(%q) = %q, %v", s, got, err)
		}
	}

	_, err := hos.ParseDutyStatus("personal_conveyance")
	var ve *hos.ValidationError
	if !errors.As(err, &ve) || ve.Field != "duty_status" {
		t.Errorf("expected duty_status ValidationError, got %v", err)
	}
}

func TestMutator_AggregatesMatchRecomputation(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := newLog(t, "log-1", day0)
	in := hos.DetectInput{Driver: driver708}

	steps := []struct {
		status domain.DutyStatus
		h, m   int
	}{
		{domain.DutyStatusSleeperBerth, 0, 0},
		{domain.DutyStatusOffDuty, 4, 0},
		{domain.DutyStatusOnDutyNotDriving, 6, 0},
		{domain.DutyStatusDriving, 6, 15},
		{domain.DutyStatusOffDuty, 11, 0},
		{domain.DutyStatusDriving, 11, 30},
		{domain.DutyStatusOnDutyNotDriving, 15, 0},
		{domain.DutyStatusOffDuty, 15, 45},
	}
	for _, s := range steps {
		if _, _, err := m.AppendStatus(log, hos.AppendInput{Status: s.status, Start: at(day0, s.h, s.m)}, in); err != nil {
			t.Fatalf("append %s failed: %v", s.status, err)
		}
		if !hos.AggregatesConsistent(log) {
			t.Fatalf("aggregates drifted after %s", s.status)
		}
	}
	if err := m.CloseDay(log); err != nil {
		t.Fatalf("CloseDay failed: %v", err)
	}

	if !hos.AggregatesConsistent(log) {
		t.Error("aggregates drifted after close")
	}
	if !hos.Gapless(log) {
		t.Error("expected closed day to be gapless")
	}
	if log.TotalDrive != 8*time.Hour+15*time.Minute {
		t.Errorf("expected 8h15m driving, got %v", log.TotalDrive)
	}
	if log.TotalSleeper != 4*time.Hour {
		t.Errorf("expected 4h sleeper, got %v", log.TotalSleeper)
	}
	total := log.TotalDuty + log.TotalOffDuty + log.TotalSleeper
	if total != 24*time.Hour {
		t.Errorf("expected statuses to cover 24h, got %v", total)
	}
	if log.State != domain.TimelineSettled {
		t.Errorf("expected settled, got %s", log.State)
	}
}

func TestCloseOpen_Errors(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := newLog(t, "log-1", day0)

	if err := m.CloseOpen(log, at(day0, 8, 0)); !errors.Is(err, hos.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition without open interval, got %v", err)
	}

	if _, _, err := m.AppendStatus(log, hos.AppendInput{Status: domain.DutyStatusDriving, Start: at(day0, 8, 0)}, hos.DetectInput{}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := m.CloseOpen(log, at(day0, 8, 0)); !errors.Is(err, hos.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for zero-length close, got %v", err)
	}
	if err := m.CloseOpen(log, at(day0, 9, 0)); err != nil {
		t.Errorf("expected close to succeed, got %v", err)
	}
	if log.TotalDrive != time.Hour {
		t.Errorf("expected 1h driving, got %v", log.TotalDrive)
	}
}

func TestCertify_Twice(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := buildLog(t, m, "log-1", day0, span{domain.DutyStatusOffDuty, 0, 0, 24, 0})
	first := at(day0, 23, 0)

	if err := m.Certify(log, first); err != nil {
		t.Fatalf("expected first certify to succeed, got %v", err)
	}
	err := m.Certify(log, first.Add(time.Hour))

	if !errors.Is(err, hos.ErrAlreadyCertified) {
		t.Fatalf("expected ErrAlreadyCertified, got %v", err)
	}
	if !log.CertifiedAt.Equal(first) {
		t.Errorf("expected certification time unchanged, got %v", log.CertifiedAt)
	}
}

func TestCertify_BlocksFurtherWrites(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := buildLog(t, m, "log-1", day0, span{domain.DutyStatusOffDuty, 0, 0, 6, 0})
	if err := m.Certify(log, at(day0, 7, 0)); err != nil {
		t.Fatalf("certify failed: %v", err)
	}

	_, _, err := m.AppendStatus(log, hos.AppendInput{Status: domain.DutyStatusDriving, Start: at(day0, 8, 0)}, hos.DetectInput{})

	if !errors.Is(err, hos.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on certified log, got %v", err)
	}
}

func TestFinalize_DoesNotDuplicateFindings(t *testing.T) {
	t.Parallel()

	m := hos.NewMutator(nil)
	log := buildLog(t, m, "log-1", day0,
		span{domain.DutyStatusDriving, 6, 0, 12, 0},
		span{domain.DutyStatusOffDuty, 12, 0, 12, 30},
		span{domain.DutyStatusDriving, 12, 30, 18, 0},
	)
	in := hos.DetectInput{Driver: driver708}

	first := m.Finalize(log, in)
	second := m.Finalize(log, in)

	if len(first) != 1 || first[0].Type != domain.ViolationDrive11h {
		t.Fatalf("expected one drive_11h on first pass, got %v", first)
	}
	if len(second) != 0 {
		t.Errorf("expected no new violations on second pass, got %d", len(second))
	}
	if len(log.Violations) != 1 {
		t.Errorf("expected 1 stored violation, got %d", len(log.Violations))
	}
	if !log.HasDrivingViolation || log.HasDutyViolation {
		t.Errorf("unexpected flags: driving=%v duty=%v", log.HasDrivingViolation, log.HasDutyViolation)
	}
	if first[0].ID == "" || first[0].LogID != "log-1" {
		t.Errorf("expected id and log id assigned, got %+v", first[0])
	}
}

func TestViolation_ResolveTwice(t *testing.T) {
	t.Parallel()

	v := &domain.Violation{ID: "v-1", Type: domain.ViolationDrive11h}

	if err := v.Resolve("driver counselled"); err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	err := v.Resolve("again")

	if !errors.Is(err, hos.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if v.ResolutionNotes != "driver counselled" {
		t.Errorf("expected notes unchanged, got %q", v.ResolutionNotes)
	}
}
