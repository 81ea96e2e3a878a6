package contracts

import "time"

// RideStatusMessage is published by the dispatch service on every ride state
// change. Routing key: "ride.status.{status}" on ExchangeRideTopic.
type RideStatusMessage struct {
	RideID    string    `json:"ride_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"` // requested|assigned|enroute|arrived|completed|cancelled
	Timestamp time.Time `json:"timestamp"`
	DriverID  string    `json:"driver_id,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Envelope
}
