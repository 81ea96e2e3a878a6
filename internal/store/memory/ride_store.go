package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"
)

// RideStore is the in-memory authoritative ride table plus the per-user
// newest-first index. Every operation is atomic with respect to itself and
// returns independent snapshots.
type RideStore struct {
	mu     sync.RWMutex
	nextID int
	byID   map[string]*ride.Ride
	byUser map[string][]string // ride ids, newest first
	now    func() time.Time
}

// NewRideStore constructs an empty store. Ids are allocated monotonically
// starting at R-1000.
func NewRideStore() *RideStore {
	return &RideStore{
		nextID: 1000,
		byID:   make(map[string]*ride.Ride),
		byUser: make(map[string][]string),
		now:    time.Now,
	}
}

var _ ports.RideStore = (*RideStore)(nil)

// Save creates or shallow-merges a ride record. See ports.RideInput for the
// merge contract.
func (store *RideStore) Save(_ context.Context, in ports.RideInput) (ride.Ride, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if in.ID == "" {
		if in.UserID == "" {
			return ride.Ride{}, ride.ErrUserRequired
		}
		id := fmt.Sprintf("R-%d", store.nextID)
		store.nextID++
		return store.create(id, in)
	}

	existing, ok := store.byID[in.ID]
	if !ok {
		// unknown supplied id: upsert-as-create
		if in.UserID == "" {
			return ride.Ride{}, ride.ErrUserRequired
		}
		return store.create(in.ID, in)
	}

	// shallow merge over the existing record
	if in.Status != nil && !in.Status.Valid() {
		return ride.Ride{}, ride.ErrInvalidStatus
	}
	if in.UserID != "" && in.UserID != existing.UserID {
		store.removeFromIndex(existing.UserID, existing.ID)
		store.byUser[in.UserID] = append([]string{existing.ID}, store.byUser[in.UserID]...)
		existing.UserID = in.UserID
	}
	applyPatch(existing, ports.RidePatch{DriverID: in.DriverID, Price: in.Price, Meta: in.Meta})
	if in.Pickup != nil {
		existing.Pickup = *in.Pickup
	}
	if in.Dropoff != nil {
		existing.Dropoff = *in.Dropoff
	}
	if in.Status != nil {
		existing.Status = *in.Status
	}
	existing.UpdatedAt = store.stamp(existing.UpdatedAt)

	return existing.Clone(), nil
}

// Get returns a snapshot of the ride, or ride.ErrNotFound.
func (store *RideStore) Get(_ context.Context, id string) (ride.Ride, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	rec, ok := store.byID[id]
	if !ok {
		return ride.Ride{}, ride.ErrNotFound
	}
	return rec.Clone(), nil
}

// ListByUser slices the user's index, newest first. Negative offsets and
// non-positive limits yield an empty page; range clamping is the caller's
// concern.
func (store *RideStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]ride.Ride, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	ids := store.byUser[userID]
	if limit <= 0 || offset < 0 || offset >= len(ids) {
		return []ride.Ride{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	out := make([]ride.Ride, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, store.byID[id].Clone())
	}
	return out, nil
}

// UpdateStatus validates the status, merges the patch, and refreshes
// UpdatedAt. Terminal-state business rules live in the services; the store
// only enforces enumeration membership.
func (store *RideStore) UpdateStatus(_ context.Context, id string, status ride.Status, patch ports.RidePatch) (ride.Ride, error) {
	if !status.Valid() {
		return ride.Ride{}, ride.ErrInvalidStatus
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	rec, ok := store.byID[id]
	if !ok {
		return ride.Ride{}, ride.ErrNotFound
	}
	rec.Status = status
	applyPatch(rec, patch)
	rec.UpdatedAt = store.stamp(rec.UpdatedAt)

	return rec.Clone(), nil
}

// ----- internals -----

// create inserts a new record with defaults and prepends to the user index.
// Caller holds the write lock.
func (store *RideStore) create(id string, in ports.RideInput) (ride.Ride, error) {
	status := ride.StatusRequested
	if in.Status != nil {
		if !in.Status.Valid() {
			return ride.Ride{}, ride.ErrInvalidStatus
		}
		status = *in.Status
	}

	now := store.now().UTC()
	rec := &ride.Ride{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    in.UserID,
		Status:    status,
		Meta:      ride.Meta{},
	}
	if in.Pickup != nil {
		rec.Pickup = *in.Pickup
	}
	if in.Dropoff != nil {
		rec.Dropoff = *in.Dropoff
	}
	applyPatch(rec, ports.RidePatch{DriverID: in.DriverID, Price: in.Price, Meta: in.Meta})

	store.byID[id] = rec
	store.byUser[in.UserID] = append([]string{id}, store.byUser[in.UserID]...)

	return rec.Clone(), nil
}

func applyPatch(rec *ride.Ride, patch ports.RidePatch) {
	if patch.DriverID != nil {
		rec.DriverID = *patch.DriverID
	}
	if patch.Price != nil {
		price := *patch.Price
		rec.Price = &price
	}
	if patch.Meta != nil {
		rec.Meta = patch.Meta.Clone()
	}
}

func (store *RideStore) removeFromIndex(userID, rideID string) {
	ids := store.byUser[userID]
	for i, id := range ids {
		if id == rideID {
			store.byUser[userID] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

// stamp returns a strictly increasing UpdatedAt even when the wall clock has
// not advanced between writes.
func (store *RideStore) stamp(prev time.Time) time.Time {
	now := store.now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}
