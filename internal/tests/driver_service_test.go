package tests

import (
	"context"
	"errors"
	"testing"

	"trucklog/internal/domain"
	"trucklog/internal/repository"
	"trucklog/internal/service"
)

func TestRegisterDriver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       service.RegisterDriverRequest
		wantErr   error
		wantCycle domain.CycleType
	}{
		{name: "defaults to 70/8", req: service.RegisterDriverRequest{Name: "  Sam Ortiz "}, wantCycle: domain.CycleType70Hour8Day},
		{name: "60/7", req: service.RegisterDriverRequest{Name: "Sam Ortiz", CycleType: "60_7"}, wantCycle: domain.CycleType60Hour7Day},
		{name: "missing name", req: service.RegisterDriverRequest{Name: "   "}, wantErr: service.ErrInvalidDriverName},
		{name: "unknown cycle", req: service.RegisterDriverRequest{Name: "Sam Ortiz", CycleType: "80_8"}, wantErr: service.ErrInvalidCycleType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, at(day0, 9, 0))

			driver, err := f.driverService().Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if f.drivers.CreateCallCount != 0 {
					t.Error("expected nothing stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if driver.Name != "Sam Ortiz" || driver.CycleType != tt.wantCycle {
				t.Errorf("unexpected driver %+v", driver)
			}
			if driver.ID == "" || !driver.CreatedAt.Equal(at(day0, 9, 0)) {
				t.Errorf("expected generated id and clock timestamp, got %+v", driver)
			}
		})
	}
}

func TestGetDriver_ServesFromCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(day0, 9, 0))
	svc := f.driverService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := svc.GetDriver(ctx, "driver-1")
		if err != nil {
			t.Fatalf("get %d failed: %v", i, err)
		}
		if d.Name != "Dana Reyes" {
			t.Errorf("unexpected driver %+v", d)
		}
	}

	if f.drivers.GetByIDCallCount != 1 {
		t.Errorf("expected a single repository read, got %d", f.drivers.GetByIDCallCount)
	}
	if _, err := svc.GetDriver(ctx, "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHOSStatus_ComputesAndCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(day0, 10, 0))
	f.addLog("log-1", day0)
	logs := f.logService()
	appendRecord(t, logs, "log-1", domain.DutyStatusOnDutyNotDriving, at(day0, 6, 0))
	appendRecord(t, logs, "log-1", domain.DutyStatusDriving, at(day0, 7, 0))
	svc := f.driverService()
	ctx := context.Background()

	st, err := svc.HOSStatus(ctx, "driver-1")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if st.DailyDrivingUsed != 3 || st.DailyDrivingAvailable != 8 {
		t.Errorf("expected 3h driven and 8h left, got %v / %v", st.DailyDrivingUsed, st.DailyDrivingAvailable)
	}
	if st.DailyDutyUsed != 4 || st.DailyDutyAvailable != 10 {
		t.Errorf("expected 4h of the duty window used, got %v / %v", st.DailyDutyUsed, st.DailyDutyAvailable)
	}
	if st.CycleUsed != 4 || st.CycleAvailable != 66 {
		t.Errorf("expected 4h of the cycle used, got %v / %v", st.CycleUsed, st.CycleAvailable)
	}
	if st.CurrentStatus != domain.DutyStatusDriving {
		t.Errorf("expected driving status, got %s", st.CurrentStatus)
	}

	if _, err := svc.HOSStatus(ctx, "driver-1"); err != nil {
		t.Fatalf("second status failed: %v", err)
	}
	if f.cache.SetHOSStatusCallCount != 1 {
		t.Errorf("expected second read served from cache, got %d cache writes", f.cache.SetHOSStatusCallCount)
	}

	appendRecord(t, logs, "log-1", domain.DutyStatusOffDuty, at(day0, 10, 0))
	if f.cache.HasHOSStatus("driver-1") {
		t.Error("expected a log write to invalidate the cached status")
	}
}

func TestHOSStatus_UnknownDriver(t *testing.T) {
	t.Parallel()

	f := newFixture(t, at(day0, 9, 0))

	if _, err := f.driverService().HOSStatus(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
