package driver

import (
	"errors"

	"ride-dispatch/internal/domain/geo"
)

// Driver is the availability/position record owned by the DriverRegistry.
// Mutated only through registry operations; seeded at startup and never
// deleted during the process lifetime.
type Driver struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	VehicleType string         `json:"vehicleType"`
	Position    geo.Coordinate `json:"position"`
	Available   bool           `json:"available"`
}

var (
	ErrNotFound      = errors.New("driver not found")
	ErrNoneAvailable = errors.New("no drivers available")
)
