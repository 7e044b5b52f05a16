package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"trucklog/internal/domain"
	"trucklog/internal/repository"
)

// LogRepository is a PostgreSQL implementation of repository.LogRepository.
type LogRepository struct {
	q   Querier
	loc *time.Location
}

// NewLogRepository creates a new PostgreSQL log repository.
// loc is the trip-day clock location log dates are rebuilt in.
func NewLogRepository(db *sql.DB, loc *time.Location) *LogRepository {
	return &LogRepository{q: db, loc: orUTC(loc)}
}

// NewLogRepositoryWithTx creates a log repository using a transaction.
func NewLogRepositoryWithTx(tx *sql.Tx, loc *time.Location) *LogRepository {
	return &LogRepository{q: tx, loc: orUTC(loc)}
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

const logColumns = `id, driver_id, trip_id, log_date, vehicle_id,
	total_drive_seconds, total_duty_seconds, total_off_duty_seconds, total_sleeper_seconds,
	has_driving_violation, has_duty_violation, is_certified, certified_at, created_at, updated_at`

const intervalColumns = `id, log_id, status, start_time, end_time, location_name, lat, lng, odometer, notes, origin, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create persists a new log with its intervals and violations.
func (r *LogRepository) Create(ctx context.Context, log *domain.DailyLog) error {
	query := `
		INSERT INTO daily_logs (` + logColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.q.ExecContext(ctx, query,
		log.ID,
		log.DriverID,
		nullString(log.TripID),
		log.Key(),
		log.VehicleID,
		int64(log.TotalDrive.Seconds()),
		int64(log.TotalDuty.Seconds()),
		int64(log.TotalOffDuty.Seconds()),
		int64(log.TotalSleeper.Seconds()),
		log.HasDrivingViolation,
		log.HasDutyViolation,
		log.IsCertified,
		nullTime(log.CertifiedAt),
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	if err := r.insertIntervals(ctx, log); err != nil {
		return err
	}
	return r.insertViolations(ctx, log)
}

// GetByID retrieves a log by ID.
func (r *LogRepository) GetByID(ctx context.Context, id string) (*domain.DailyLog, error) {
	query := `SELECT ` + logColumns + ` FROM daily_logs WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByDriverDate retrieves the driver's log for a calendar date.
func (r *LogRepository) GetByDriverDate(ctx context.Context, driverID, date string) (*domain.DailyLog, error) {
	query := `SELECT ` + logColumns + ` FROM daily_logs WHERE driver_id = $1 AND log_date = $2`
	return r.getOne(ctx, query, driverID, date)
}

func (r *LogRepository) getOne(ctx context.Context, query string, args ...any) (*domain.DailyLog, error) {
	log, err := r.scanLog(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.hydrate(ctx, []*domain.DailyLog{log}); err != nil {
		return nil, err
	}
	return log, nil
}

// ListByDriver retrieves the driver's logs in [from, to], oldest first.
func (r *LogRepository) ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]*domain.DailyLog, error) {
	query := `
		SELECT ` + logColumns + `
		FROM daily_logs
		WHERE driver_id = $1 AND log_date BETWEEN $2 AND $3
		ORDER BY log_date
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, domain.DateKey(from), domain.DateKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.DailyLog
	for rows.Next() {
		log, err := r.scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.hydrate(ctx, logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Save writes the log row, replaces its intervals, and inserts new violations.
// Call it inside a transaction so the three writes land together.
func (r *LogRepository) Save(ctx context.Context, log *domain.DailyLog) error {
	query := `
		UPDATE daily_logs
		SET trip_id = $1, vehicle_id = $2,
			total_drive_seconds = $3, total_duty_seconds = $4, total_off_duty_seconds = $5, total_sleeper_seconds = $6,
			has_driving_violation = $7, has_duty_violation = $8, is_certified = $9, certified_at = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(log.TripID),
		log.VehicleID,
		int64(log.TotalDrive.Seconds()),
		int64(log.TotalDuty.Seconds()),
		int64(log.TotalOffDuty.Seconds()),
		int64(log.TotalSleeper.Seconds()),
		log.HasDrivingViolation,
		log.HasDutyViolation,
		log.IsCertified,
		nullTime(log.CertifiedAt),
		log.UpdatedAt,
		log.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM duty_intervals WHERE log_id = $1`, log.ID); err != nil {
		return err
	}
	if err := r.insertIntervals(ctx, log); err != nil {
		return err
	}
	return r.insertViolations(ctx, log)
}

func (r *LogRepository) insertIntervals(ctx context.Context, log *domain.DailyLog) error {
	query := `
		INSERT INTO duty_intervals (` + intervalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, iv := range log.Intervals {
		var lat, lng sql.NullFloat64
		if c := iv.Location.Coords; c != nil {
			lat = sql.NullFloat64{Float64: c.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: c.Lng, Valid: true}
		}
		var odometer sql.NullInt64
		if iv.Odometer != nil {
			odometer = sql.NullInt64{Int64: int64(*iv.Odometer), Valid: true}
		}

		if _, err := r.q.ExecContext(ctx, query,
			iv.ID,
			log.ID,
			iv.Status,
			iv.Start,
			nullTime(iv.End),
			iv.Location.Name,
			lat,
			lng,
			odometer,
			iv.Notes,
			iv.Origin,
			iv.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *LogRepository) insertViolations(ctx context.Context, log *domain.DailyLog) error {
	query := `
		INSERT INTO violations (` + violationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	for _, v := range log.Violations {
		if _, err := r.q.ExecContext(ctx, query,
			v.ID,
			log.ID,
			v.DriverID,
			v.Type,
			v.Severity,
			v.ActualValue,
			v.LimitValue,
			v.Description,
			v.DetectedAt,
			v.Resolved,
			v.ResolutionNotes,
			v.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *LogRepository) scanLog(row rowScanner) (*domain.DailyLog, error) {
	var log domain.DailyLog
	var tripID sql.NullString
	var logDate time.Time
	var drive, duty, offDuty, sleeper int64
	var certifiedAt sql.NullTime

	if err := row.Scan(
		&log.ID,
		&log.DriverID,
		&tripID,
		&logDate,
		&log.VehicleID,
		&drive,
		&duty,
		&offDuty,
		&sleeper,
		&log.HasDrivingViolation,
		&log.HasDutyViolation,
		&log.IsCertified,
		&certifiedAt,
		&log.CreatedAt,
		&log.UpdatedAt,
	); err != nil {
		return nil, err
	}

	log.TripID = tripID.String
	log.LogDate = time.Date(logDate.Year(), logDate.Month(), logDate.Day(), 0, 0, 0, 0, r.loc)
	log.TotalDrive = time.Duration(drive) * time.Second
	log.TotalDuty = time.Duration(duty) * time.Second
	log.TotalOffDuty = time.Duration(offDuty) * time.Second
	log.TotalSleeper = time.Duration(sleeper) * time.Second
	if certifiedAt.Valid {
		log.CertifiedAt = certifiedAt.Time
	}
	log.State = domain.TimelineAwaitingFirst

	return &log, nil
}

// hydrate loads intervals and violations for logs in two queries.
func (r *LogRepository) hydrate(ctx context.Context, logs []*domain.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}

	byID := make(map[string]*domain.DailyLog, len(logs))
	ids := make([]string, 0, len(logs))
	for _, l := range logs {
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}

	if err := r.loadIntervals(ctx, ids, byID); err != nil {
		return err
	}
	if err := r.loadViolations(ctx, ids, byID); err != nil {
		return err
	}

	for _, l := range logs {
		l.RestoreState()
	}
	return nil
}

func (r *LogRepository) loadIntervals(ctx context.Context, ids []string, byID map[string]*domain.DailyLog) error {
	query := `
		SELECT ` + intervalColumns + `
		FROM duty_intervals
		WHERE log_id = ANY($1)
		ORDER BY log_id, start_time
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var iv domain.DutyInterval
		var end sql.NullTime
		var lat, lng sql.NullFloat64
		var odometer sql.NullInt64

		if err := rows.Scan(
			&iv.ID,
			&iv.LogID,
			&iv.Status,
			&iv.Start,
			&end,
			&iv.Location.Name,
			&lat,
			&lng,
			&odometer,
			&iv.Notes,
			&iv.Origin,
			&iv.CreatedAt,
		); err != nil {
			return err
		}

		iv.Start = iv.Start.In(r.loc)
		if end.Valid {
			iv.End = end.Time.In(r.loc)
		}
		if lat.Valid && lng.Valid {
			iv.Location.Coords = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
		}
		if odometer.Valid {
			o := int(odometer.Int64)
			iv.Odometer = &o
		}

		if l, ok := byID[iv.LogID]; ok {
			l.Intervals = append(l.Intervals, &iv)
		}
	}
	return rows.Err()
}

func (r *LogRepository) loadViolations(ctx context.Context, ids []string, byID map[string]*domain.DailyLog) error {
	query := `
		SELECT ` + violationColumns + `
		FROM violations
		WHERE log_id = ANY($1)
		ORDER BY detected_at, created_at
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return err
		}
		if l, ok := byID[v.LogID]; ok {
			l.Violations = append(l.Violations, v)
		}
	}
	return rows.Err()
}

// Ensure LogRepository implements repository.LogRepository.
var _ repository.LogRepository = (*LogRepository)(nil)
