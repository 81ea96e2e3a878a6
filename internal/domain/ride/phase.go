package ride

// Phase is the simulation sub-state distinguishing travel to the pickup from
// travel to the dropoff. It lives in Ride.Meta; its meaning is undefined once
// the ride reaches a terminal status.
type Phase string

const (
	PhaseToPickup  Phase = "to_pickup"
	PhaseAtPickup  Phase = "pickup"
	PhaseToDropoff Phase = "to_dropoff"
)
