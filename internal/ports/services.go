package ports

import (
	"context"

	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/domain/user"
)

// RequestRideInput is the service-level ride creation request.
type RequestRideInput struct {
	UserID  string
	Pickup  geo.Coordinate
	Dropoff geo.Coordinate
}

// DispatchService orchestrates ride creation, cancellation, and owner-scoped
// reads.
type DispatchService interface {
	RequestRide(ctx context.Context, in RequestRideInput) (ride.Ride, error)
	Cancel(ctx context.Context, rideID, userID string) (ride.Ride, error)
	GetRide(ctx context.Context, rideID, userID string) (ride.Ride, error)
	ListRides(ctx context.Context, userID string, limit, offset int) ([]ride.Ride, error)
}

// Subscriber is a live-update observer handle. Implementations must be
// comparable (the bus keys registrations on the handle itself).
type Subscriber interface {
	// Deliver pushes one ride snapshot. A non-nil error marks the handle
	// non-deliverable and drops it from its subscriber set.
	Deliver(snapshot ride.Ride) error
}

// UpdateBus decouples snapshot producers from live-update consumers.
type UpdateBus interface {
	// Subscribe registers the handle under rideID; idempotent per
	// (rideID, handle) pair. A handle re-subscribing to a different ride
	// is moved, never duplicated.
	Subscribe(rideID string, sub Subscriber)
	// Unsubscribe removes the handle from whatever ride set it belonged
	// to; empty sets are removed entirely.
	Unsubscribe(sub Subscriber)
	// Publish fans snapshot out to every registered handle for rideID.
	// Fire-and-forget: a failing handle is dropped, never waited on.
	Publish(rideID string, snapshot ride.Ride)
	// ActiveRideIDs lists ride ids with at least one subscriber. Only these
	// rides are advanced by the simulation.
	ActiveRideIDs() []string
}

// EventPublisher mirrors published snapshots to an external broker.
// Optional; the dispatch path treats it as best-effort.
type EventPublisher interface {
	PublishRideStatus(ctx context.Context, snapshot ride.Ride) error
}

// AuthResult is a signed token plus the principal it identifies.
type AuthResult struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// IdentityService owns credential checks and token issuance/verification.
type IdentityService interface {
	Register(ctx context.Context, email, password string) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Verify(ctx context.Context, token string) (user.User, error)
}
