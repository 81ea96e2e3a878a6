package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"ride-dispatch/internal/domain/ride"
)

// generateCorrelationID creates a simple correlation ID for tracing requests.
func generateCorrelationID() string {
	var b [3]byte // 6 hex chars
	_, _ = rand.Read(b[:])
	ts := time.Now().UTC().Format("20060102T150405") // e.g., 20251028T184523
	return "req_" + ts + "_" + hex.EncodeToString(b[:])
}

// publishSnapshot fans the snapshot out to live subscribers, then mirrors it
// to the optional broker and journal. Mirror failures are logged and never
// surfaced; the in-memory write already succeeded.
func (service *dispatchService) publishSnapshot(ctx context.Context, snapshot ride.Ride) {
	service.bus.Publish(snapshot.ID, snapshot)

	if service.events != nil {
		if err := service.events.PublishRideStatus(ctx, snapshot); err != nil {
			service.logger.Error(ctx, "ride_status_publish_failed", "Failed to publish ride status to RabbitMQ", err, map[string]any{
				"ride_id": snapshot.ID,
				"status":  snapshot.Status.String(),
			})
		}
	}

	if service.journal != nil {
		if err := service.journal.Append(ctx, ride.NewEvent(snapshot)); err != nil {
			service.logger.Error(ctx, "ride_event_append_failed", "Failed to append ride event to journal", err, map[string]any{
				"ride_id": snapshot.ID,
				"status":  snapshot.Status.String(),
			})
		}
	}
}
