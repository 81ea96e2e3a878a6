package geo

import "math"

const (
	earthRadiusKM = 6371.0

	// Flat degree scales used for step interpolation and trip estimates.
	// A regional approximation valid near the deployment's reference
	// latitude; not a substitute for real routing.
	kmPerDegLat = 111.0
	kmPerDegLng = 85.0

	// snapEpsilonDeg is the degree delta below which StepToward returns the
	// target exactly instead of approaching it asymptotically forever.
	snapEpsilonDeg = 1e-6
)

// DistanceKM returns the great-circle distance between a and b in kilometres
// via the haversine formula.
func DistanceKM(a, b Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	rLat1 := toRadians(a.Lat)
	rLat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKM * c
}

// StepToward moves pos toward target by at most stepKM. Each axis advances
// independently, clamped so the step never overshoots the target.
func StepToward(pos, target Coordinate, stepKM float64) Coordinate {
	dLat := target.Lat - pos.Lat
	dLng := target.Lng - pos.Lng
	if math.Max(math.Abs(dLat), math.Abs(dLng)) < snapEpsilonDeg {
		return Coordinate{Lat: target.Lat, Lng: target.Lng}
	}

	maxLat := stepKM / kmPerDegLat
	maxLng := stepKM / kmPerDegLng

	return Coordinate{
		Lat: pos.Lat + sign(dLat)*math.Min(math.Abs(dLat), maxLat),
		Lng: pos.Lng + sign(dLng)*math.Min(math.Abs(dLng), maxLng),
	}
}

// FlatTripKM approximates the straight-line trip length on the same flat
// degree scales StepToward uses. It is a pricing input, not a navigation
// distance.
func FlatTripKM(a, b Coordinate) float64 {
	dx := math.Abs((b.Lat - a.Lat) * kmPerDegLat)
	dy := math.Abs((b.Lng - a.Lng) * kmPerDegLng)
	return math.Sqrt(dx*dx + dy*dy)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
