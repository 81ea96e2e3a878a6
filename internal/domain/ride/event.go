package ride

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Event is an append-only journal entry recording a ride snapshot at the
// moment of a state change.
type Event struct {
	ID        string
	RideID    string
	Type      string // the status the ride entered, e.g. "assigned"
	Snapshot  Ride
	CreatedAt time.Time
}

var (
	ErrEventRideRequired = errors.New("event ride_id is required")
	ErrEventTypeRequired = errors.New("event type is required")
)

// NewEvent builds a journal event from a published snapshot.
func NewEvent(snapshot Ride) Event {
	return Event{
		RideID:   snapshot.ID,
		Type:     snapshot.Status.String(),
		Snapshot: snapshot,
	}
}

// Validate checks the event invariants before persistence.
func (event Event) Validate() error {
	if strings.TrimSpace(event.RideID) == "" {
		return ErrEventRideRequired
	}
	if strings.TrimSpace(event.Type) == "" {
		return ErrEventTypeRequired
	}
	return nil
}

// DataJSON serializes the snapshot for the jsonb event_data column.
func (event Event) DataJSON() ([]byte, error) {
	return json.Marshal(event.Snapshot)
}
