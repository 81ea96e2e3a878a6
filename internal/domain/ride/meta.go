package ride

import "ride-dispatch/internal/domain/geo"

// Well-known Meta keys. driverPos and phase are ephemeral simulation fields:
// driverPos is the simulated position, distinct from the registry position
// which tracks the last reported location independently.
const (
	MetaDriverPos   = "driverPos"
	MetaPhase       = "phase"
	MetaDistanceKM  = "distanceKm"
	MetaCompletedAt = "completedAt"
)

// Meta is the open key/value bag attached to a ride. Store writes replace it
// wholesale (shallow merge contract), so writers pre-merge via Clone.
type Meta map[string]any

// Clone returns a shallow copy; well-known values are immutable value types.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DriverPos reads the simulated driver position, if one has been recorded.
func (m Meta) DriverPos() (geo.Coordinate, bool) {
	pos, ok := m[MetaDriverPos].(geo.Coordinate)
	return pos, ok
}

// Phase reads the simulation phase, defaulting to PhaseToPickup when unset.
func (m Meta) Phase() Phase {
	if phase, ok := m[MetaPhase].(Phase); ok {
		return phase
	}
	return PhaseToPickup
}
