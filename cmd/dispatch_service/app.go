package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-dispatch/internal/bus"
	"ride-dispatch/internal/general/config"
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/general/postgres"
	"ride-dispatch/internal/general/rabbitmq"
	"ride-dispatch/internal/general/websocket"
	"ride-dispatch/internal/ports"
	dispatchhandler "ride-dispatch/internal/software/dispatch/handler"
	dispatchservice "ride-dispatch/internal/software/dispatch/service"
	identityhandler "ride-dispatch/internal/software/identity/handler"
	identityservice "ride-dispatch/internal/software/identity/service"
	simulation "ride-dispatch/internal/software/simulation/service"
	"ride-dispatch/internal/store/memory"
)

// Run wires the dispatch service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("dispatch-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// optional Postgres journal
	var journal ports.RideEventJournal
	if cfg.Database.Enabled {
		pool, err := postgres.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
			return err
		}
		defer pool.Close()
		journal = postgres.NewJournal(pool)
	}

	// optional RabbitMQ status mirror
	var events ports.EventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err := rabbitmq.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
			return err
		}
		defer rmq.Close()
		events = rabbitmq.NewStatusBridge(rmq, "dispatch-service")
	}

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute)

	// in-memory state: seeded drivers, empty rides and users
	rideStore := memory.NewRideStore()
	driverRegistry := memory.NewDriverRegistry(memory.SeedDrivers())
	userStore := memory.NewUserStore()
	updateBus := bus.New(logger)

	// set up the services
	dispatchSvc := dispatchservice.NewDispatchService(logger, rideStore, driverRegistry, updateBus, events, journal)
	identitySvc := identityservice.NewIdentityService(logger, userStore, jwtManager)

	// live feed over the update bus
	livefeed := websocket.NewLiveFeed(logger, jwtManager, updateBus, rideStore)

	// run the simulation scheduler in the background
	scheduler := simulation.NewScheduler(logger, rideStore, driverRegistry, updateBus, events, journal, simulation.Config{
		TickInterval:        time.Duration(cfg.Simulation.TickMS) * time.Millisecond,
		StepKM:              cfg.Simulation.StepKM,
		ArrivalThresholdDeg: cfg.Simulation.ArrivalThresholdDeg,
		JitterDeg:           cfg.Simulation.JitterDeg,
	})
	go scheduler.Run(ctx)

	// set up the HTTP handlers and their routes
	mux := http.NewServeMux()
	dispatchhandler.NewDispatchHTTPHandler(dispatchSvc, logger, jwtManager, livefeed).RegisterRoutes(mux)
	identityhandler.NewIdentityHTTPHandler(identitySvc, logger).RegisterRoutes(mux)

	// concurrency limiter (global); blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),               // listen on the specified port
		Handler:           limitedHandler,                                    // apply the concurrency limiter to the HTTP handler
		ReadHeaderTimeout: 5 * time.Second,                                   // time to read headers
		ReadTimeout:       10 * time.Second,                                  // time to read full request body
		WriteTimeout:      0,                                                 // unset: the live feed holds connections open
		IdleTimeout:       60 * time.Second,                                  // keep-alive window
		BaseContext:       func(net.Listener) context.Context { return ctx }, // pass base ctx to all handlers
	}

	// log service start
	logger.Info(ctx, "service_started",
		fmt.Sprintf("Dispatch Service started on port %d", cfg.Server.Port),
		map[string]any{"port": cfg.Server.Port, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Dispatch Service shutting down", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Server.Port})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
