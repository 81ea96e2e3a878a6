package service

import (
	"context"
	"errors"
	"math"
	"time"

	"ride-dispatch/internal/domain/driver"
	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"
)

// advance moves one ride forward by a single tick. Unknown rides and rides
// without a driver are skipped silently; subscribers may watch ids that never
// materialize.
func (scheduler *Scheduler) advance(ctx context.Context, rideID string) error {
	current, err := scheduler.rides.Get(ctx, rideID)
	if errors.Is(err, ride.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current.DriverID == "" {
		return nil
	}

	ctx = scheduler.logger.WithRideID(ctx, rideID)

	switch current.Status {
	case ride.StatusRequested:
		// nothing to move until a driver is assigned
		return nil
	case ride.StatusAssigned:
		// the first hop always reports the pickup leg, even when the
		// driver spawns a single step away
		return scheduler.moveTowardPickup(ctx, current, false)
	case ride.StatusEnroute:
		if current.Meta.Phase() == ride.PhaseToDropoff {
			return scheduler.moveTowardDropoff(ctx, current, true)
		}
		return scheduler.moveTowardPickup(ctx, current, true)
	case ride.StatusArrived:
		// same contract as assigned: the dropoff leg gets at least one
		// enroute snapshot before completion
		return scheduler.moveTowardDropoff(ctx, current, false)
	case ride.StatusCompleted, ride.StatusCancelled:
		// safety net for terminal rides still in the active set
		return scheduler.releaseDriver(ctx, current.DriverID)
	}
	return nil
}

// moveTowardPickup steps the driver toward the pickup point. When mayArrive
// is set and the step lands inside the threshold the ride flips to arrived;
// otherwise it is enroute in the pickup phase.
func (scheduler *Scheduler) moveTowardPickup(ctx context.Context, current ride.Ride, mayArrive bool) error {
	pos := scheduler.driverPos(current)
	next := geo.StepToward(pos, current.Pickup, scheduler.cfg.StepKM)

	meta := current.Meta.Clone()
	if meta == nil {
		meta = ride.Meta{}
	}
	meta[ride.MetaDriverPos] = next

	status := ride.StatusEnroute
	meta[ride.MetaPhase] = ride.PhaseToPickup
	if mayArrive && scheduler.withinThreshold(next, current.Pickup) {
		status = ride.StatusArrived
		meta[ride.MetaPhase] = ride.PhaseAtPickup
	}

	return scheduler.applyMovement(ctx, current, status, next, meta)
}

// moveTowardDropoff steps the driver toward the dropoff point. When
// mayComplete is set and the step lands inside the threshold the ride
// completes and the driver is released.
func (scheduler *Scheduler) moveTowardDropoff(ctx context.Context, current ride.Ride, mayComplete bool) error {
	pos := scheduler.driverPos(current)
	next := geo.StepToward(pos, current.Dropoff, scheduler.cfg.StepKM)

	meta := current.Meta.Clone()
	if meta == nil {
		meta = ride.Meta{}
	}
	meta[ride.MetaDriverPos] = next
	meta[ride.MetaPhase] = ride.PhaseToDropoff

	status := ride.StatusEnroute
	if mayComplete && scheduler.withinThreshold(next, current.Dropoff) {
		status = ride.StatusCompleted
		meta[ride.MetaCompletedAt] = time.Now().UTC().Format(time.RFC3339)
	}

	if err := scheduler.applyMovement(ctx, current, status, next, meta); err != nil {
		return err
	}

	if status == ride.StatusCompleted {
		scheduler.logger.Info(ctx, "ride_completed", "Ride reached dropoff", map[string]any{
			"driver_id": current.DriverID,
		})
		return scheduler.releaseDriver(ctx, current.DriverID)
	}
	return nil
}

// applyMovement records the new driver position in the registry, persists the
// status and meta, and fans the snapshot out.
func (scheduler *Scheduler) applyMovement(ctx context.Context, current ride.Ride, status ride.Status, pos geo.Coordinate, meta ride.Meta) error {
	if _, err := scheduler.drivers.UpdatePosition(ctx, current.DriverID, pos); err != nil && !errors.Is(err, driver.ErrNotFound) {
		return err
	}

	updated, err := scheduler.rides.UpdateStatus(ctx, current.ID, status, ports.RidePatch{Meta: meta})
	if err != nil {
		return err
	}

	scheduler.publishSnapshot(ctx, updated)
	return nil
}

// releaseDriver marks the driver available again. Unknown drivers are not an
// error here; seed fleets can change across restarts.
func (scheduler *Scheduler) releaseDriver(ctx context.Context, driverID string) error {
	if _, err := scheduler.drivers.SetAvailability(ctx, driverID, true); err != nil && !errors.Is(err, driver.ErrNotFound) {
		return err
	}
	return nil
}

// driverPos resolves the simulated position, spawning near the pickup when
// the ride has no recorded position yet.
func (scheduler *Scheduler) driverPos(current ride.Ride) geo.Coordinate {
	if pos, ok := current.Meta.DriverPos(); ok {
		return pos
	}
	lat, lng := scheduler.jitterAround(current.Pickup.Lat, current.Pickup.Lng)
	return geo.Coordinate{Lat: lat, Lng: lng}
}

// withinThreshold reports per-axis closeness; both deltas must be inside the
// arrival threshold.
func (scheduler *Scheduler) withinThreshold(pos, target geo.Coordinate) bool {
	return math.Abs(pos.Lat-target.Lat) < scheduler.cfg.ArrivalThresholdDeg &&
		math.Abs(pos.Lng-target.Lng) < scheduler.cfg.ArrivalThresholdDeg
}

// publishSnapshot mirrors the dispatch path's fan-out: bus first, then the
// optional broker and journal, best effort.
func (scheduler *Scheduler) publishSnapshot(ctx context.Context, snapshot ride.Ride) {
	scheduler.bus.Publish(snapshot.ID, snapshot)

	if scheduler.events != nil {
		if err := scheduler.events.PublishRideStatus(ctx, snapshot); err != nil {
			scheduler.logger.Error(ctx, "ride_status_publish_failed", "Failed to publish ride status to RabbitMQ", err, map[string]any{
				"ride_id": snapshot.ID,
				"status":  snapshot.Status.String(),
			})
		}
	}
	if scheduler.journal != nil {
		if err := scheduler.journal.Append(ctx, ride.NewEvent(snapshot)); err != nil {
			scheduler.logger.Error(ctx, "ride_event_append_failed", "Failed to append ride event to journal", err, map[string]any{
				"ride_id": snapshot.ID,
				"status":  snapshot.Status.String(),
			})
		}
	}
}
