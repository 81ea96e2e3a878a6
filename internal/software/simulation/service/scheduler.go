package service

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
)

// Config holds the tuning knobs for driver movement.
type Config struct {
	TickInterval        time.Duration // cadence of simulation passes
	StepKM              float64       // distance covered per tick
	ArrivalThresholdDeg float64       // per-axis closeness that counts as arrival
	JitterDeg           float64       // spawn offset around pickup for unseen drivers
}

// Scheduler advances every subscribed ride once per tick. Rides nobody is
// watching are left untouched until someone subscribes.
type Scheduler struct {
	logger  *logger.Logger
	rides   ports.RideStore
	drivers ports.DriverRegistry
	bus     ports.UpdateBus
	events  ports.EventPublisher
	journal ports.RideEventJournal
	cfg     Config

	rngMu  sync.Mutex
	rng    *rand.Rand
	inTick atomic.Bool
}

// NewScheduler creates the simulation scheduler. events and journal are
// optional and may be nil.
func NewScheduler(
	logger *logger.Logger,
	rides ports.RideStore,
	drivers ports.DriverRegistry,
	bus ports.UpdateBus,
	events ports.EventPublisher,
	journal ports.RideEventJournal,
	cfg Config,
) *Scheduler {
	return &Scheduler{
		logger:  logger,
		rides:   rides,
		drivers: drivers,
		bus:     bus,
		events:  events,
		journal: journal,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drives the tick loop until ctx is cancelled.
func (scheduler *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(scheduler.cfg.TickInterval)
	defer ticker.Stop()

	scheduler.logger.Info(ctx, "simulation_started", "Simulation scheduler running", map[string]any{
		"tick_ms": scheduler.cfg.TickInterval.Milliseconds(),
		"step_km": scheduler.cfg.StepKM,
	})

	for {
		select {
		case <-ctx.Done():
			scheduler.logger.Info(ctx, "simulation_stopped", "Simulation scheduler stopped", nil)
			return
		case <-ticker.C:
			scheduler.Tick(ctx)
		}
	}
}

// Tick advances all subscribed rides once. Overlapping invocations are
// rejected rather than queued; the next tick catches up.
func (scheduler *Scheduler) Tick(ctx context.Context) {
	if !scheduler.inTick.CompareAndSwap(false, true) {
		scheduler.logger.Warn(ctx, "simulation_tick_skipped", "Previous tick still running", nil)
		return
	}
	defer scheduler.inTick.Store(false)

	for _, rideID := range scheduler.bus.ActiveRideIDs() {
		if err := scheduler.advance(ctx, rideID); err != nil {
			// one broken ride must not starve the rest of the fleet
			scheduler.logger.Error(ctx, "simulation_advance_failed", "Failed to advance ride", err, map[string]any{
				"ride_id": rideID,
			})
		}
	}
}

// jitterAround returns a random position within JitterDeg of origin on both
// axes. Used to spawn a driver whose location was never reported.
func (scheduler *Scheduler) jitterAround(lat, lng float64) (float64, float64) {
	scheduler.rngMu.Lock()
	defer scheduler.rngMu.Unlock()

	return lat + (scheduler.rng.Float64()*2-1)*scheduler.cfg.JitterDeg,
		lng + (scheduler.rng.Float64()*2-1)*scheduler.cfg.JitterDeg
}
