package service

import (
	"context"
	"errors"
	"fmt"

	"ride-dispatch/internal/domain/driver"
	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"
)

// Cancel transitions the ride to cancelled and releases its driver. Only the
// requesting user may cancel; everyone else sees the ride as not found.
func (service *dispatchService) Cancel(ctx context.Context, rideID, userID string) (ride.Ride, error) {
	ctx = service.logger.WithRideID(ctx, rideID)

	current, err := service.rides.Get(ctx, rideID)
	if err != nil {
		return ride.Ride{}, err
	}
	if current.UserID != userID {
		// ownership leaks nothing: a foreign ride looks like a missing one
		return ride.Ride{}, ride.ErrNotFound
	}
	if current.Status.Terminal() {
		return ride.Ride{}, ride.ErrAlreadyFinished
	}

	cancelled, err := service.rides.UpdateStatus(ctx, rideID, ride.StatusCancelled, ports.RidePatch{})
	if err != nil {
		service.logger.Error(ctx, "ride_cancel_failed", "Failed to cancel ride", err, map[string]any{
			"user_id": userID,
		})
		return ride.Ride{}, err
	}

	if cancelled.DriverID != "" {
		if _, err := service.drivers.SetAvailability(ctx, cancelled.DriverID, true); err != nil && !errors.Is(err, driver.ErrNotFound) {
			service.logger.Error(ctx, "driver_release_failed", "Failed to release driver after cancel", err, map[string]any{
				"driver_id": cancelled.DriverID,
			})
		}
	}

	service.logger.Info(ctx, "ride_cancelled", fmt.Sprintf("Ride %s cancelled", rideID), map[string]any{
		"user_id":   userID,
		"driver_id": cancelled.DriverID,
	})

	service.publishSnapshot(ctx, cancelled)

	return cancelled, nil
}
