package repository

import "context"

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Drivers    DriverRepository
	Logs       LogRepository
	Violations ViolationRepository
	Trips      TripRepository
}

// Transactor runs fn against repositories that share a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
