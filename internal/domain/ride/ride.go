package ride

import (
	"errors"
	"time"

	"ride-dispatch/internal/domain/geo"
)

// Ride is the authoritative ride record owned by the RideStore.
type Ride struct {
	// Identity & audit. ID and CreatedAt are immutable after creation;
	// UpdatedAt strictly increases on every write.
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Actors
	UserID   string `json:"userId"`
	DriverID string `json:"driverId,omitempty"` // empty until a driver is reserved

	// Trip endpoints
	Pickup  geo.Coordinate `json:"pickup"`
	Dropoff geo.Coordinate `json:"dropoff"`

	// Core state
	Status Status   `json:"status"`
	Price  *float64 `json:"price,omitempty"`
	Meta   Meta     `json:"meta"`
}

var (
	ErrNotFound        = errors.New("ride not found")
	ErrAlreadyFinished = errors.New("ride already finished")
	ErrUserRequired    = errors.New("ride userId is required")
)

// Clone returns an independent snapshot safe to hand to external consumers.
// Callers never receive a live handle into store-internal state.
func (r Ride) Clone() Ride {
	r.Meta = r.Meta.Clone()
	if r.Price != nil {
		price := *r.Price
		r.Price = &price
	}
	return r
}
