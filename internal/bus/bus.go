// Package bus implements the per-ride subscription registry and fan-out
// broadcaster that decouples snapshot producers (dispatch, simulation) from
// live-update consumers.
package bus

import (
	"context"
	"sort"
	"sync"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
)

// UpdateBus keys subscriber sets by ride id. A handle belongs to at most one
// ride set at a time; when a set empties the ride id entry is removed, which
// is what keeps unsubscribed rides out of the simulation.
type UpdateBus struct {
	logger *logger.Logger

	mu     sync.RWMutex
	byRide map[string]map[ports.Subscriber]struct{}
	rideOf map[ports.Subscriber]string
}

func New(logger *logger.Logger) *UpdateBus {
	return &UpdateBus{
		logger: logger,
		byRide: make(map[string]map[ports.Subscriber]struct{}),
		rideOf: make(map[ports.Subscriber]string),
	}
}

var _ ports.UpdateBus = (*UpdateBus)(nil)

// Subscribe registers sub under rideID. Idempotent per (rideID, sub); a
// handle already registered elsewhere is moved to the new ride.
func (bus *UpdateBus) Subscribe(rideID string, sub ports.Subscriber) {
	if rideID == "" || sub == nil {
		return
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if current, ok := bus.rideOf[sub]; ok {
		if current == rideID {
			return
		}
		bus.removeLocked(sub, current)
	}

	set, ok := bus.byRide[rideID]
	if !ok {
		set = make(map[ports.Subscriber]struct{})
		bus.byRide[rideID] = set
	}
	set[sub] = struct{}{}
	bus.rideOf[sub] = rideID
}

// Unsubscribe removes sub from whatever ride set it belonged to.
func (bus *UpdateBus) Unsubscribe(sub ports.Subscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if rideID, ok := bus.rideOf[sub]; ok {
		bus.removeLocked(sub, rideID)
	}
}

// Publish delivers snapshot to every handle registered for rideID. Delivery
// is fire-and-forget: a failing handle is dropped from the set and does not
// block delivery to the others.
func (bus *UpdateBus) Publish(rideID string, snapshot ride.Ride) {
	bus.mu.RLock()
	subs := make([]ports.Subscriber, 0, len(bus.byRide[rideID]))
	for sub := range bus.byRide[rideID] {
		subs = append(subs, sub)
	}
	bus.mu.RUnlock()

	var failed []ports.Subscriber
	for _, sub := range subs {
		if err := sub.Deliver(snapshot); err != nil {
			failed = append(failed, sub)
		}
	}
	if len(failed) == 0 {
		return
	}

	bus.mu.Lock()
	for _, sub := range failed {
		if current, ok := bus.rideOf[sub]; ok && current == rideID {
			bus.removeLocked(sub, rideID)
		}
	}
	bus.mu.Unlock()

	bus.logger.Debug(context.Background(), "bus_subscribers_dropped",
		"Dropped non-deliverable subscribers",
		map[string]any{"ride_id": rideID, "dropped": len(failed)})
}

// ActiveRideIDs returns the sorted ids of rides with at least one subscriber.
func (bus *UpdateBus) ActiveRideIDs() []string {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	ids := make([]string, 0, len(bus.byRide))
	for id := range bus.byRide {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// removeLocked deletes sub from rideID's set, dropping the set when empty.
// Caller holds the write lock.
func (bus *UpdateBus) removeLocked(sub ports.Subscriber, rideID string) {
	delete(bus.rideOf, sub)
	if set, ok := bus.byRide[rideID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(bus.byRide, rideID)
		}
	}
}
