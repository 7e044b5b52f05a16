package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"trucklog/internal/domain"
	"trucklog/internal/repository"
)

// ViolationRepository is a PostgreSQL implementation of repository.ViolationRepository.
type ViolationRepository struct {
	q Querier
}

// NewViolationRepository creates a new PostgreSQL violation repository.
func NewViolationRepository(db *sql.DB) *ViolationRepository {
	return &ViolationRepository{q: db}
}

// NewViolationRepositoryWithTx creates a violation repository using a transaction.
func NewViolationRepositoryWithTx(tx *sql.Tx) *ViolationRepository {
	return &ViolationRepository{q: tx}
}

const violationColumns = `id, log_id, driver_id, type, severity, actual_value, limit_value,
	description, detected_at, resolved, resolution_notes, created_at`

const defaultViolationLimit = 200

func scanViolation(row rowScanner) (*domain.Violation, error) {
	var v domain.Violation
	if err := row.Scan(
		&v.ID,
		&v.LogID,
		&v.DriverID,
		&v.Type,
		&v.Severity,
		&v.ActualValue,
		&v.LimitValue,
		&v.Description,
		&v.DetectedAt,
		&v.Resolved,
		&v.ResolutionNotes,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByID retrieves a violation by ID.
func (r *ViolationRepository) GetByID(ctx context.Context, id string) (*domain.Violation, error) {
	query := `SELECT ` + violationColumns + ` FROM violations WHERE id = $1`

	v, err := scanViolation(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// List retrieves violations matching the filter, newest first.
func (r *ViolationRepository) List(ctx context.Context, filter repository.ViolationFilter) ([]*domain.Violation, error) {
	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.DriverID != "" {
		add("driver_id = $%d", filter.DriverID)
	}
	if filter.LogID != "" {
		add("log_id = $%d", filter.LogID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Severity != "" {
		add("severity = $%d", filter.Severity)
	}
	if filter.Resolved != nil {
		add("resolved = $%d", *filter.Resolved)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultViolationLimit
	}

	query := `SELECT ` + violationColumns + ` FROM violations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY detected_at DESC, id LIMIT $%d`, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []*domain.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// UpdateResolution stores the resolved flag and notes.
func (r *ViolationRepository) UpdateResolution(ctx context.Context, v *domain.Violation) error {
	query := `UPDATE violations SET resolved = $1, resolution_notes = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, v.Resolved, v.ResolutionNotes, v.ID)
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

// Ensure ViolationRepository implements repository.ViolationRepository.
var _ repository.ViolationRepository = (*ViolationRepository)(nil)
