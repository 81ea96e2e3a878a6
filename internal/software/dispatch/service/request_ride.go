package service

import (
	"context"
	"fmt"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"
)

// RequestRide reserves the nearest available driver, prices the trip, and
// creates the ride directly in assigned state.
func (service *dispatchService) RequestRide(ctx context.Context, in ports.RequestRideInput) (ride.Ride, error) {
	correlationID := generateCorrelationID()
	ctx = service.logger.WithRequestID(ctx, correlationID)

	if err := in.Pickup.Validate(); err != nil {
		return ride.Ride{}, err
	}
	if err := in.Dropoff.Validate(); err != nil {
		return ride.Ride{}, err
	}
	if in.UserID == "" {
		return ride.Ride{}, ride.ErrUserRequired
	}

	// find-and-reserve is one critical section inside the registry; from
	// here on the driver is ours until released
	drv, pickupDistKM, err := service.drivers.ReserveNearest(ctx, in.Pickup)
	if err != nil {
		service.logger.Info(ctx, "ride_match_failed", "No driver could be reserved", map[string]any{
			"user_id": in.UserID,
		})
		return ride.Ride{}, err
	}

	price := estimatePrice(in.Pickup, in.Dropoff, pickupDistKM)
	status := ride.StatusAssigned

	created, err := service.rides.Save(ctx, ports.RideInput{
		UserID:   in.UserID,
		Pickup:   &in.Pickup,
		Dropoff:  &in.Dropoff,
		DriverID: &drv.ID,
		Status:   &status,
		Price:    &price,
		Meta: ride.Meta{
			// full precision; rounding is presentation-only
			ride.MetaDistanceKM: pickupDistKM,
		},
	})
	if err != nil {
		// no compensating release: the store rejecting a create is a
		// programming error, and silently returning the driver could
		// double-book a concurrent reservation
		service.logger.Error(ctx, "driver_left_reserved", "Ride save failed after driver reservation", err, map[string]any{
			"user_id":   in.UserID,
			"driver_id": drv.ID,
		})
		return ride.Ride{}, err
	}

	ctx = service.logger.WithRideID(ctx, created.ID)
	service.logger.Info(ctx, "ride_created", fmt.Sprintf("Ride %s assigned to driver %s", created.ID, drv.ID), map[string]any{
		"user_id":            in.UserID,
		"driver_id":          drv.ID,
		"price":              price,
		"pickup_distance_km": round2(pickupDistKM),
	})

	service.publishSnapshot(ctx, created)

	return created, nil
}
