package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"trucklog/internal/domain"
	"trucklog/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, driver_id, name, status, current_location, pickup_location, dropoff_location,
	current_cycle_used, total_distance_miles, estimated_duration_hours,
	planned_start, planned_end, actual_start, actual_end, rest_stops, fuel_stops, created_at`

// locationDoc is the JSONB shape of a domain.Location.
type locationDoc struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

type restStopDoc struct {
	Sequence               int     `json:"sequence"`
	Type                   string  `json:"type"`
	RequiredSeconds        int64   `json:"required_seconds"`
	Lat                    float64 `json:"lat"`
	Lng                    float64 `json:"lng"`
	DistanceFromStartMiles float64 `json:"distance_from_start_miles"`
	HoursDrivenBefore      float64 `json:"hours_driven_before"`
	HoursOnDutyBefore      float64 `json:"hours_on_duty_before"`
}

type fuelStopDoc struct {
	Sequence               int     `json:"sequence"`
	DistanceFromStartMiles float64 `json:"distance_from_start_miles"`
	Lat                    float64 `json:"lat"`
	Lng                    float64 `json:"lng"`
	DurationSeconds        int64   `json:"duration_seconds"`
}

func encodeLocation(l domain.Location) ([]byte, error) {
	doc := locationDoc{Name: l.Name}
	if l.Coords != nil {
		lat, lng := l.Coords.Lat, l.Coords.Lng
		doc.Lat, doc.Lng = &lat, &lng
	}
	return json.Marshal(doc)
}

func decodeLocation(data []byte) (domain.Location, error) {
	var doc locationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Location{}, err
	}
	loc := domain.Location{Name: doc.Name}
	if doc.Lat != nil && doc.Lng != nil {
		loc.Coords = &domain.Coordinates{Lat: *doc.Lat, Lng: *doc.Lng}
	}
	return loc, nil
}

func encodeStops(trip *domain.Trip) (rest, fuel []byte, err error) {
	restDocs := make([]restStopDoc, 0, len(trip.RestStops))
	for _, s := range trip.RestStops {
		restDocs = append(restDocs, restStopDoc{
			Sequence:               s.Sequence,
			Type:                   string(s.Type),
			RequiredSeconds:        int64(s.RequiredDuration.Seconds()),
			Lat:                    s.Coordinates.Lat,
			Lng:                    s.Coordinates.Lng,
			DistanceFromStartMiles: s.DistanceFromStartMiles,
			HoursDrivenBefore:      s.HoursDrivenBefore,
			HoursOnDutyBefore:      s.HoursOnDutyBefore,
		})
	}
	fuelDocs := make([]fuelStopDoc, 0, len(trip.FuelStops))
	for _, s := range trip.FuelStops {
		fuelDocs = append(fuelDocs, fuelStopDoc{
			Sequence:               s.Sequence,
			DistanceFromStartMiles: s.DistanceFromStartMiles,
			Lat:                    s.Coordinates.Lat,
			Lng:                    s.Coordinates.Lng,
			DurationSeconds:        int64(s.Duration.Seconds()),
		})
	}

	if rest, err = json.Marshal(restDocs); err != nil {
		return nil, nil, err
	}
	if fuel, err = json.Marshal(fuelDocs); err != nil {
		return nil, nil, err
	}
	return rest, fuel, nil
}

func decodeStops(trip *domain.Trip, rest, fuel []byte) error {
	var restDocs []restStopDoc
	if err := json.Unmarshal(rest, &restDocs); err != nil {
		return err
	}
	var fuelDocs []fuelStopDoc
	if err := json.Unmarshal(fuel, &fuelDocs); err != nil {
		return err
	}

	for _, d := range restDocs {
		trip.RestStops = append(trip.RestStops, domain.RestStop{
			Sequence:               d.Sequence,
			Type:                   domain.RestStopType(d.Type),
			RequiredDuration:       time.Duration(d.RequiredSeconds) * time.Second,
			Coordinates:            domain.Coordinates{Lat: d.Lat, Lng: d.Lng},
			DistanceFromStartMiles: d.DistanceFromStartMiles,
			HoursDrivenBefore:      d.HoursDrivenBefore,
			HoursOnDutyBefore:      d.HoursOnDutyBefore,
		})
	}
	for _, d := range fuelDocs {
		trip.FuelStops = append(trip.FuelStops, domain.FuelStop{
			Sequence:               d.Sequence,
			DistanceFromStartMiles: d.DistanceFromStartMiles,
			Coordinates:            domain.Coordinates{Lat: d.Lat, Lng: d.Lng},
			Duration:               time.Duration(d.DurationSeconds) * time.Second,
		})
	}
	return nil
}

// tripArgs returns the column values for a trip in tripColumns order.
func tripArgs(trip *domain.Trip) ([]any, error) {
	current, err := encodeLocation(trip.CurrentLocation)
	if err != nil {
		return nil, err
	}
	pickup, err := encodeLocation(trip.PickupLocation)
	if err != nil {
		return nil, err
	}
	dropoff, err := encodeLocation(trip.DropoffLocation)
	if err != nil {
		return nil, err
	}
	rest, fuel, err := encodeStops(trip)
	if err != nil {
		return nil, err
	}

	return []any{
		trip.ID,
		trip.DriverID,
		trip.Name,
		trip.Status,
		current,
		pickup,
		dropoff,
		trip.CurrentCycleUsed,
		trip.TotalDistanceMiles,
		trip.EstimatedDurationHours,
		trip.PlannedStart,
		trip.PlannedEnd,
		nullTime(trip.ActualStart),
		nullTime(trip.ActualEnd),
		rest,
		fuel,
		trip.CreatedAt,
	}, nil
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var current, pickup, dropoff, rest, fuel []byte
	var actualStart, actualEnd sql.NullTime

	if err := row.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.Name,
		&trip.Status,
		&current,
		&pickup,
		&dropoff,
		&trip.CurrentCycleUsed,
		&trip.TotalDistanceMiles,
		&trip.EstimatedDurationHours,
		&trip.PlannedStart,
		&trip.PlannedEnd,
		&actualStart,
		&actualEnd,
		&rest,
		&fuel,
		&trip.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if trip.CurrentLocation, err = decodeLocation(current); err != nil {
		return nil, err
	}
	if trip.PickupLocation, err = decodeLocation(pickup); err != nil {
		return nil, err
	}
	if trip.DropoffLocation, err = decodeLocation(dropoff); err != nil {
		return nil, err
	}
	if err := decodeStops(&trip, rest, fuel); err != nil {
		return nil, err
	}
	if actualStart.Valid {
		trip.ActualStart = actualStart.Time
	}
	if actualEnd.Valid {
		trip.ActualEnd = actualEnd.Time
	}

	return &trip, nil
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	args, err := tripArgs(trip)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetAll retrieves trips, newest first, optionally for one driver.
func (r *TripRepository) GetAll(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE ($1 = '' OR driver_id = $1)
		ORDER BY planned_start DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET driver_id = $2, name = $3, status = $4, current_location = $5, pickup_location = $6,
			dropoff_location = $7, current_cycle_used = $8, total_distance_miles = $9,
			estimated_duration_hours = $10, planned_start = $11, planned_end = $12,
			actual_start = $13, actual_end = $14, rest_stops = $15, fuel_stops = $16
		WHERE id = $1
	`

	args, err := tripArgs(trip)
	if err != nil {
		return err
	}

	// created_at is immutable
	result, err := r.q.ExecContext(ctx, query, args[:len(args)-1]...)
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

	return nil
}

// GetActiveByDriverID retrieves the driver's in-progress trip.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = $1 AND status = $2
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID, domain.TripStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
