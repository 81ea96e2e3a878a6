package ports

import (
	"context"

	"ride-dispatch/internal/domain/driver"
	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/domain/user"
)

// RideInput carries the fields a caller may supply to RideStore.Save.
// Nil pointers mean "leave unset / keep existing". Meta, when non-nil,
// replaces the stored bag wholesale; callers pre-merge.
type RideInput struct {
	ID       string
	UserID   string
	Pickup   *geo.Coordinate
	Dropoff  *geo.Coordinate
	DriverID *string
	Status   *ride.Status
	Price    *float64
	Meta     ride.Meta
}

// RidePatch is the extra-field merge applied alongside a status update,
// with the same semantics as RideInput.
type RidePatch struct {
	DriverID *string
	Price    *float64
	Meta     ride.Meta
}

// RideStore owns ride records and the per-user newest-first index.
// All reads return independent snapshots.
type RideStore interface {
	// Save creates a ride (allocating an id when none is supplied, or
	// upsert-as-create for an unknown supplied id) or shallow-merges the
	// supplied fields over an existing record.
	Save(ctx context.Context, in RideInput) (ride.Ride, error)
	Get(ctx context.Context, id string) (ride.Ride, error)
	// ListByUser slices the per-user index, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]ride.Ride, error)
	// UpdateStatus validates status membership, merges patch, and always
	// refreshes UpdatedAt.
	UpdateStatus(ctx context.Context, id string, status ride.Status, patch RidePatch) (ride.Ride, error)
}

// DriverRegistry owns driver availability and position state.
type DriverRegistry interface {
	// FindNearestAvailable scans all drivers and returns the closest
	// available one with its distance in km. Ties break on lowest id.
	FindNearestAvailable(ctx context.Context, origin geo.Coordinate) (driver.Driver, float64, error)
	// ReserveNearest performs find-nearest-then-reserve as one critical
	// section so concurrent requests can never double-book a driver.
	ReserveNearest(ctx context.Context, origin geo.Coordinate) (driver.Driver, float64, error)
	SetAvailability(ctx context.Context, id string, available bool) (driver.Driver, error)
	UpdatePosition(ctx context.Context, id string, pos geo.Coordinate) (driver.Driver, error)
	Get(ctx context.Context, id string) (driver.Driver, error)
}

// UserStore owns rider principals for the identity boundary.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

// RideEventJournal is an optional append-only sink for ride state changes.
// Implementations must not be read back by the core.
type RideEventJournal interface {
	Append(ctx context.Context, event ride.Event) error
}
