package service

import (
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"
)

// dispatchService encapsulates ride matching, cancellation, and owner-scoped
// reads over the in-memory stores.
type dispatchService struct {
	logger  *logger.Logger
	rides   ports.RideStore
	drivers ports.DriverRegistry
	bus     ports.UpdateBus
	events  ports.EventPublisher   // optional broker mirror; may be nil
	journal ports.RideEventJournal // optional append-only journal; may be nil
}

// NewDispatchService creates a new dispatch service with the provided
// dependencies. events and journal are optional and may be nil.
func NewDispatchService(
	logger *logger.Logger,
	rides ports.RideStore,
	drivers ports.DriverRegistry,
	bus ports.UpdateBus,
	events ports.EventPublisher,
	journal ports.RideEventJournal,
) ports.DispatchService {
	return &dispatchService{
		logger:  logger,
		rides:   rides,
		drivers: drivers,
		bus:     bus,
		events:  events,
		journal: journal,
	}
}
