package service

import (
	"context"

	"ride-dispatch/internal/domain/ride"
)

// Pagination bounds for ride history listings.
const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxListOffset    = 10000
)

// GetRide returns the ride if it belongs to userID; otherwise not found.
func (service *dispatchService) GetRide(ctx context.Context, rideID, userID string) (ride.Ride, error) {
	current, err := service.rides.Get(ctx, rideID)
	if err != nil {
		return ride.Ride{}, err
	}
	if current.UserID != userID {
		return ride.Ride{}, ride.ErrNotFound
	}
	return current, nil
}

// ListRides pages through the user's ride history, newest first. Out-of-range
// pagination values are clamped, never rejected.
func (service *dispatchService) ListRides(ctx context.Context, userID string, limit, offset int) ([]ride.Ride, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > maxListOffset {
		offset = maxListOffset
	}

	return service.rides.ListByUser(ctx, userID, limit, offset)
}
