package postgres

import (
	"context"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Journal appends ride events to the ride_events table using pgx and plain
// SQL. Write-only; the in-memory store stays authoritative.
type Journal struct {
	pool *pgxpool.Pool
}

// NewJournal constructs a journal over an open pool.
func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool}
}

var _ ports.RideEventJournal = (*Journal)(nil)

// Append inserts a new ride_events row.
func (journal *Journal) Append(ctx context.Context, event ride.Event) error {
	// validate event before inserting
	if err := event.Validate(); err != nil {
		return err
	}

	// serialize the snapshot to JSON
	data, err := event.DataJSON()
	if err != nil {
		return err
	}

	// insert ride event record
	_, err = journal.pool.Exec(ctx, `
		INSERT INTO ride_events (ride_id, event_type, event_data)
		VALUES ($1, $2, $3::jsonb)
	`,
		event.RideID,
		event.Type,
		string(data),
	)
	return err
}
