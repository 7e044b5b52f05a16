package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"trucklog/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Store hands out repositories over a shared connection pool.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore creates a Store. loc is the trip-day clock used to rebuild log dates.
func NewStore(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

// Repositories returns repositories bound to the pool.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Drivers:    NewDriverRepository(s.db),
		Logs:       NewLogRepository(s.db, s.loc),
		Violations: NewViolationRepository(s.db),
		Trips:      NewTripRepository(s.db),
	}
}

// WithinTx runs fn with repositories bound to one transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := repository.Repositories{
		Drivers:    NewDriverRepositoryWithTx(tx),
		Logs:       NewLogRepositoryWithTx(tx, s.loc),
		Violations: NewViolationRepositoryWithTx(tx),
		Trips:      NewTripRepositoryWithTx(tx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	return tx.Commit()
}

// Ensure Store implements repository.Transactor.
var _ repository.Transactor = (*Store)(nil)
