package memory

import (
	"context"
	"sort"
	"sync"

	"ride-dispatch/internal/domain/driver"
	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/ports"
)

// DriverRegistry is the in-memory authoritative driver table. Scans iterate
// ids in sorted order, which fixes the nearest-driver tie-break to the lowest
// id and makes matching deterministic.
type DriverRegistry struct {
	mu   sync.RWMutex
	byID map[string]*driver.Driver
	ids  []string // sorted
}

// NewDriverRegistry seeds the registry; drivers are never deleted afterwards.
func NewDriverRegistry(seed []driver.Driver) *DriverRegistry {
	registry := &DriverRegistry{byID: make(map[string]*driver.Driver, len(seed))}
	for _, d := range seed {
		rec := d
		registry.byID[d.ID] = &rec
		registry.ids = append(registry.ids, d.ID)
	}
	sort.Strings(registry.ids)
	return registry
}

var _ ports.DriverRegistry = (*DriverRegistry)(nil)

// SeedDrivers returns the default fleet around San Francisco.
func SeedDrivers() []driver.Driver {
	return []driver.Driver{
		{ID: "D-1001", Name: "Alex Parker", VehicleType: "Sedan", Position: geo.Coordinate{Lat: 37.7749, Lng: -122.4194}, Available: true},
		{ID: "D-1002", Name: "Briana Lee", VehicleType: "SUV", Position: geo.Coordinate{Lat: 37.784, Lng: -122.409}, Available: true},
		{ID: "D-1003", Name: "Carlos Diaz", VehicleType: "Hatchback", Position: geo.Coordinate{Lat: 37.768, Lng: -122.431}, Available: true},
		{ID: "D-1004", Name: "Dana Kapoor", VehicleType: "Minivan", Position: geo.Coordinate{Lat: 37.781, Lng: -122.418}, Available: false},
		{ID: "D-1005", Name: "Ethan Wright", VehicleType: "Sedan", Position: geo.Coordinate{Lat: 37.771, Lng: -122.405}, Available: true},
	}
}

// FindNearestAvailable scans all drivers and returns the closest available
// one with its distance in km, or driver.ErrNoneAvailable.
func (registry *DriverRegistry) FindNearestAvailable(_ context.Context, origin geo.Coordinate) (driver.Driver, float64, error) {
	if err := origin.Validate(); err != nil {
		return driver.Driver{}, 0, err
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.nearestLocked(origin)
}

// ReserveNearest finds the nearest available driver and marks it unavailable
// under a single lock hold, so two concurrent requests can never reserve the
// same driver.
func (registry *DriverRegistry) ReserveNearest(_ context.Context, origin geo.Coordinate) (driver.Driver, float64, error) {
	if err := origin.Validate(); err != nil {
		return driver.Driver{}, 0, err
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	best, distKM, err := registry.nearestLocked(origin)
	if err != nil {
		return driver.Driver{}, 0, err
	}
	registry.byID[best.ID].Available = false
	best.Available = false
	return best, distKM, nil
}

// SetAvailability flips the availability flag; driver.ErrNotFound on unknown id.
func (registry *DriverRegistry) SetAvailability(_ context.Context, id string, available bool) (driver.Driver, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	rec, ok := registry.byID[id]
	if !ok {
		return driver.Driver{}, driver.ErrNotFound
	}
	rec.Available = available
	return *rec, nil
}

// UpdatePosition records the last reported location; rejects non-numeric
// coordinates.
func (registry *DriverRegistry) UpdatePosition(_ context.Context, id string, pos geo.Coordinate) (driver.Driver, error) {
	if err := pos.Validate(); err != nil {
		return driver.Driver{}, err
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	rec, ok := registry.byID[id]
	if !ok {
		return driver.Driver{}, driver.ErrNotFound
	}
	rec.Position = pos
	return *rec, nil
}

// Get returns a snapshot of the driver, or driver.ErrNotFound.
func (registry *DriverRegistry) Get(_ context.Context, id string) (driver.Driver, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	rec, ok := registry.byID[id]
	if !ok {
		return driver.Driver{}, driver.ErrNotFound
	}
	return *rec, nil
}

// nearestLocked is the linear nearest-available scan. Caller holds a lock.
// Strict less-than keeps the first (lowest-id) driver on distance ties.
func (registry *DriverRegistry) nearestLocked(origin geo.Coordinate) (driver.Driver, float64, error) {
	var (
		best   *driver.Driver
		bestKM float64
	)
	for _, id := range registry.ids {
		rec := registry.byID[id]
		if !rec.Available {
			continue
		}
		distKM := geo.DistanceKM(origin, rec.Position)
		if best == nil || distKM < bestKM {
			best = rec
			bestKM = distKM
		}
	}
	if best == nil {
		return driver.Driver{}, 0, driver.ErrNoneAvailable
	}
	return *best, bestKM, nil
}
