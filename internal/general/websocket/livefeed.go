package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/general/contracts"
	"ride-dispatch/internal/general/jwt"
	"ride-dispatch/internal/general/logger"
	"ride-dispatch/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout     = 90 * time.Second
	wsKeepalivePeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LiveFeed serves the ride update stream. Clients authenticate with a bearer
// token, then send subscribe messages to pick the ride they follow.
type LiveFeed struct {
	logger *logger.Logger
	jwtMgr *jwt.Manager
	bus    ports.UpdateBus
	rides  ports.RideStore
}

// NewLiveFeed creates the WebSocket handler.
func NewLiveFeed(logger *logger.Logger, jwtMgr *jwt.Manager, bus ports.UpdateBus, rides ports.RideStore) *LiveFeed {
	return &LiveFeed{
		logger: logger,
		jwtMgr: jwtMgr,
		bus:    bus,
		rides:  rides,
	}
}

// Connect handles GET /ws. Token check happens before the upgrade; after
// that the connection only carries subscribe messages inbound and ride
// snapshots outbound.
func (feed *LiveFeed) Connect(w http.ResponseWriter, r *http.Request) {
	raw, err := jwt.FromAuthorization(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if _, _, err := feed.jwtMgr.ParseAndValidate(raw); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		feed.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}

	client := newFeedClient(conn)
	defer func() {
		feed.bus.Unsubscribe(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(1 << 20) // 1 MiB
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	feed.logger.Info(r.Context(), "ws_connected", "Live feed client connected", nil)

	// keepalive loop; a failed ping closes the socket to unblock the reader
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(wsKeepalivePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := client.ping(); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	feed.readLoop(r, conn, client)
}

// readLoop routes inbound messages until the connection drops.
func (feed *LiveFeed) readLoop(r *http.Request, conn *websocket.Conn, client *feedClient) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				feed.logger.Warn(r.Context(), "ws_unexpected_close", "Live feed connection closed unexpectedly",
					map[string]any{"error": err.Error()})
			} else {
				feed.logger.Info(r.Context(), "ws_connection_closed", "Live feed connection closed", nil)
			}
			return
		}

		var msg contracts.WSSubscribeRequest
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = client.writeJSON(contracts.WSError{Type: "error", Message: "bad json"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			feed.handleSubscribe(r, client, msg)
		default:
			_ = client.writeJSON(contracts.WSError{Type: "error", Message: "unknown message type"})
		}
	}
}

// handleSubscribe registers the client for a ride and replays the current
// snapshot when the ride already exists, so late subscribers do not wait a
// full simulation tick for their first update.
func (feed *LiveFeed) handleSubscribe(r *http.Request, client *feedClient, msg contracts.WSSubscribeRequest) {
	rideID := strings.TrimSpace(msg.RideID)
	if rideID == "" {
		_ = client.writeJSON(contracts.WSError{Type: "error", Message: "missing rideId"})
		return
	}

	feed.bus.Subscribe(rideID, client)
	_ = client.writeJSON(contracts.WSSubscribed{Type: "subscribed", RideID: rideID})

	snapshot, err := feed.rides.Get(r.Context(), rideID)
	switch {
	case err == nil:
		_ = client.writeJSON(snapshot)
	case errors.Is(err, ride.ErrNotFound):
		// subscriptions to unknown rides are allowed; updates start if the
		// ride ever materializes
	default:
		feed.logger.Error(r.Context(), "ws_snapshot_failed", "Failed to load ride snapshot", err,
			map[string]any{"ride_id": rideID})
	}
}
