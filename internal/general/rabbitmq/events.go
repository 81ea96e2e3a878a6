package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/general/contracts"
	"ride-dispatch/internal/ports"
)

// StatusBridge mirrors ride snapshots to the broker as RideStatusMessage,
// routed by status on the ride topic exchange.
type StatusBridge struct {
	client   *Client
	producer string
}

// NewStatusBridge wraps a client for ride status fan-out.
func NewStatusBridge(client *Client, producer string) *StatusBridge {
	return &StatusBridge{client: client, producer: producer}
}

var _ ports.EventPublisher = (*StatusBridge)(nil)

// PublishRideStatus publishes the snapshot with routing key
// "ride.status.{status}".
func (bridge *StatusBridge) PublishRideStatus(_ context.Context, snapshot ride.Ride) error {
	msg := contracts.RideStatusMessage{
		RideID:    snapshot.ID,
		UserID:    snapshot.UserID,
		Status:    string(snapshot.Status),
		Timestamp: snapshot.UpdatedAt,
		DriverID:  snapshot.DriverID,
		Price:     snapshot.Price,
		Envelope: contracts.Envelope{
			Producer: bridge.producer,
			SentAt:   time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ride status message: %w", err)
	}

	return bridge.client.publish(contracts.RouteRideStatusPrefix+string(snapshot.Status), body)
}
