package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"ride-dispatch/internal/bus"
	"ride-dispatch/internal/domain/driver"
	"ride-dispatch/internal/domain/geo"
	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
	"ride-dispatch/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testPickup  = geo.Coordinate{Lat: 37.776, Lng: -122.417}
	testDropoff = geo.Coordinate{Lat: 37.784, Lng: -122.409}
)

// capturingPublisher records mirrored snapshots; fail makes publishing error.
type capturingPublisher struct {
	mu        sync.Mutex
	snapshots []ride.Ride
	fail      bool
}

func (pub *capturingPublisher) PublishRideStatus(_ context.Context, snapshot ride.Ride) error {
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.fail {
		return errors.New("broker down")
	}
	pub.snapshots = append(pub.snapshots, snapshot)
	return nil
}

type fixture struct {
	svc     ports.DispatchService
	rides   *memory.RideStore
	drivers *memory.DriverRegistry
	events  *capturingPublisher
}

func newFixture() *fixture {
	log := logger.New("dispatch-test")
	rides := memory.NewRideStore()
	drivers := memory.NewDriverRegistry(memory.SeedDrivers())
	events := &capturingPublisher{}
	svc := NewDispatchService(log, rides, drivers, bus.New(log), events, nil)
	return &fixture{svc: svc, rides: rides, drivers: drivers, events: events}
}

func TestRequestRideAssignsNearestDriver(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID:  "U-1",
		Pickup:  testPickup,
		Dropoff: testDropoff,
	})
	require.NoError(t, err)

	// D-1001 sits a few blocks from the pickup, closer than the rest
	assert.Equal(t, "D-1001", created.DriverID)
	assert.Equal(t, ride.StatusAssigned, created.Status)
	assert.Equal(t, "U-1", created.UserID)

	driverPos := geo.Coordinate{Lat: 37.7749, Lng: -122.4194}
	pickupDist := geo.DistanceKM(testPickup, driverPos)
	require.NotNil(t, created.Price)
	assert.Equal(t, estimatePrice(testPickup, testDropoff, pickupDist), *created.Price)

	// the stored distance keeps full precision; only the price is rounded
	assert.Equal(t, pickupDist, created.Meta[ride.MetaDistanceKM])
	assert.NotEqual(t, round2(pickupDist), created.Meta[ride.MetaDistanceKM])

	// reservation sticks
	reserved, err := fx.drivers.Get(ctx, "D-1001")
	require.NoError(t, err)
	assert.False(t, reserved.Available)
}

func TestRequestRideMirrorsSnapshot(t *testing.T) {
	fx := newFixture()

	created, err := fx.svc.RequestRide(context.Background(), ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	require.NoError(t, err)

	require.Len(t, fx.events.snapshots, 1)
	assert.Equal(t, created.ID, fx.events.snapshots[0].ID)
	assert.Equal(t, ride.StatusAssigned, fx.events.snapshots[0].Status)
}

func TestRequestRideSurvivesBrokerFailure(t *testing.T) {
	fx := newFixture()
	fx.events.fail = true

	_, err := fx.svc.RequestRide(context.Background(), ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	assert.NoError(t, err)
}

func TestRequestRideNoDriversAvailable(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	// drain the four available seed drivers
	for i := 0; i < 4; i++ {
		_, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
			UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
		})
		require.NoError(t, err)
	}

	_, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	assert.ErrorIs(t, err, driver.ErrNoneAvailable)
}

func TestRequestRideInvalidCoordinateReservesNothing(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1",
		Pickup: geo.Coordinate{Lat: math.NaN(), Lng: 0},
	})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)

	still, err := fx.drivers.Get(ctx, "D-1001")
	require.NoError(t, err)
	assert.True(t, still.Available)
}

func TestRequestRideRequiresUser(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.RequestRide(context.Background(), ports.RequestRideInput{
		Pickup: testPickup, Dropoff: testDropoff,
	})
	assert.ErrorIs(t, err, ride.ErrUserRequired)
}

func TestCancelReleasesDriver(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(ctx, created.ID, "U-1")
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCancelled, cancelled.Status)

	released, err := fx.drivers.Get(ctx, created.DriverID)
	require.NoError(t, err)
	assert.True(t, released.Available)
}

func TestCancelByNonOwnerLooksLikeMissing(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, created.ID, "U-2")
	assert.ErrorIs(t, err, ride.ErrNotFound)

	// the ride is untouched
	still, err := fx.svc.GetRide(ctx, created.ID, "U-1")
	require.NoError(t, err)
	assert.Equal(t, ride.StatusAssigned, still.Status)
}

func TestCancelTwiceConflicts(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, created.ID, "U-1")
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, created.ID, "U-1")
	assert.ErrorIs(t, err, ride.ErrAlreadyFinished)
}

func TestCancelUnknownRide(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.Cancel(context.Background(), "R-404", "U-1")
	assert.ErrorIs(t, err, ride.ErrNotFound)
}

func TestGetRideOwnerScoped(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
		UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
	})
	require.NoError(t, err)

	found, err := fx.svc.GetRide(ctx, created.ID, "U-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = fx.svc.GetRide(ctx, created.ID, "U-2")
	assert.ErrorIs(t, err, ride.ErrNotFound)
}

func TestListRidesClampsPagination(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	var newest string
	for i := 0; i < 3; i++ {
		created, err := fx.svc.RequestRide(ctx, ports.RequestRideInput{
			UserID: "U-1", Pickup: testPickup, Dropoff: testDropoff,
		})
		require.NoError(t, err)
		newest = created.ID
		// free the driver so the next request can match
		_, err = fx.svc.Cancel(ctx, created.ID, "U-1")
		require.NoError(t, err)
	}

	// zero limit falls back to the default page size
	all, err := fx.svc.ListRides(ctx, "U-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest, all[0].ID)

	// negative offset clamps to the start
	fromStart, err := fx.svc.ListRides(ctx, "U-1", 2, -5)
	require.NoError(t, err)
	assert.Len(t, fromStart, 2)

	// oversized limit is capped, not rejected
	capped, err := fx.svc.ListRides(ctx, "U-1", 100000, 0)
	require.NoError(t, err)
	assert.Len(t, capped, 3)
}

func TestEstimatePrice(t *testing.T) {
	origin := geo.Coordinate{Lat: 37.776, Lng: -122.417}

	// zero-length trip with the driver already on the spot is base fare
	assert.Equal(t, 3.0, estimatePrice(origin, origin, 0))

	// fare follows base + (trip + weighted pickup leg) * per-km rate
	got := estimatePrice(testPickup, testDropoff, 1.0)
	want := round2(priceBase + (geo.FlatTripKM(testPickup, testDropoff)+1.0*pickupDistanceWeight)*pricePerKM)
	assert.Equal(t, want, got)

	// two decimal places
	assert.Equal(t, round2(got), got)
}
