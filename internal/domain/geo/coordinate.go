package geo

import (
	"errors"
	"math"
)

// Coordinate is a WGS84 point with an optional human-readable address.
type Coordinate struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

var ErrInvalidCoordinate = errors.New("coordinate must carry numeric lat and lng")

// Validate rejects non-numeric (NaN/Inf) components. Values outside the
// [-90,90]/[-180,180] ranges are accepted here; range checks belong to the
// transport boundary.
func (coordinate Coordinate) Validate() error {
	if !isFinite(coordinate.Lat) || !isFinite(coordinate.Lng) {
		return ErrInvalidCoordinate
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
