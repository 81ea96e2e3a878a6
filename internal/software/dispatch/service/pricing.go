package service

import (
	"math"

	"ride-dispatch/internal/domain/geo"
)

// Fare model constants. The pickup leg is discounted relative to the trip
// itself; surge is a fixed multiplier until dynamic pricing lands.
const (
	priceBase            = 3.0
	pricePerKM           = 1.8
	pickupDistanceWeight = 0.3
	surgeMultiplier      = 1.0
)

// estimatePrice computes the quoted fare from the flat-projection trip
// distance and the driver's distance to pickup.
func estimatePrice(pickup, dropoff geo.Coordinate, driverDistanceKM float64) float64 {
	tripKM := geo.FlatTripKM(pickup, dropoff)
	price := (priceBase + (tripKM+driverDistanceKM*pickupDistanceWeight)*pricePerKM) * surgeMultiplier
	return round2(price)
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
