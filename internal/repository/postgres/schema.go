package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the tables and indexes the repositories rely on.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS drivers (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			license_number TEXT NOT NULL DEFAULT '',
			phone          TEXT NOT NULL DEFAULT '',
			email          TEXT NOT NULL DEFAULT '',
			cycle_type     TEXT NOT NULL DEFAULT '70_8',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id                       TEXT PRIMARY KEY,
			driver_id                TEXT NOT NULL REFERENCES drivers(id),
			name                     TEXT NOT NULL DEFAULT '',
			status                   TEXT NOT NULL,
			current_location         JSONB NOT NULL,
			pickup_location          JSONB NOT NULL,
			dropoff_location         JSONB NOT NULL,
			current_cycle_used       DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_distance_miles     DOUBLE PRECISION NOT NULL DEFAULT 0,
			estimated_duration_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			planned_start            TIMESTAMPTZ NOT NULL,
			planned_end              TIMESTAMPTZ NOT NULL,
			actual_start             TIMESTAMPTZ,
			actual_end               TIMESTAMPTZ,
			rest_stops               JSONB NOT NULL DEFAULT '[]',
			fuel_stops               JSONB NOT NULL DEFAULT '[]',
			created_at               TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_logs (
			id                     TEXT PRIMARY KEY,
			driver_id              TEXT NOT NULL REFERENCES drivers(id),
			trip_id                TEXT REFERENCES trips(id),
			log_date               DATE NOT NULL,
			vehicle_id             TEXT NOT NULL DEFAULT '',
			total_drive_seconds    BIGINT NOT NULL DEFAULT 0,
			total_duty_seconds     BIGINT NOT NULL DEFAULT 0,
			total_off_duty_seconds BIGINT NOT NULL DEFAULT 0,
			total_sleeper_seconds  BIGINT NOT NULL DEFAULT 0,
			has_driving_violation  BOOLEAN NOT NULL DEFAULT FALSE,
			has_duty_violation     BOOLEAN NOT NULL DEFAULT FALSE,
			is_certified           BOOLEAN NOT NULL DEFAULT FALSE,
			certified_at           TIMESTAMPTZ,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (driver_id, log_date)
		)`,
		`CREATE TABLE IF NOT EXISTS duty_intervals (
			id            TEXT PRIMARY KEY,
			log_id        TEXT NOT NULL REFERENCES daily_logs(id) ON DELETE CASCADE,
			status        TEXT NOT NULL,
			start_time    TIMESTAMPTZ NOT NULL,
			end_time      TIMESTAMPTZ,
			location_name TEXT NOT NULL DEFAULT '',
			lat           DOUBLE PRECISION,
			lng           DOUBLE PRECISION,
			odometer      INTEGER,
			notes         TEXT NOT NULL DEFAULT '',
			origin        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (log_id, start_time)
		)`,
		`CREATE TABLE IF NOT EXISTS violations (
			id               TEXT PRIMARY KEY,
			log_id           TEXT NOT NULL REFERENCES daily_logs(id) ON DELETE CASCADE,
			driver_id        TEXT NOT NULL REFERENCES drivers(id),
			type             TEXT NOT NULL,
			severity         TEXT NOT NULL,
			actual_value     DOUBLE PRECISION NOT NULL,
			limit_value      DOUBLE PRECISION NOT NULL,
			description      TEXT NOT NULL,
			detected_at      TIMESTAMPTZ NOT NULL,
			resolved         BOOLEAN NOT NULL DEFAULT FALSE,
			resolution_notes TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_logs_driver_date ON daily_logs(driver_id, log_date)`,
		`CREATE INDEX IF NOT EXISTS idx_duty_intervals_log ON duty_intervals(log_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_driver ON violations(driver_id, detected_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_driver ON trips(driver_id, status)`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
