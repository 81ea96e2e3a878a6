package websocket

import (
	"sync"
	"time"

	"ride-dispatch/internal/domain/ride"
	"ride-dispatch/internal/ports"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// feedClient is the per-connection subscriber handle. A pointer value keeps
// it comparable, which the bus requires for its registration maps.
type feedClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newFeedClient(conn *websocket.Conn) *feedClient {
	return &feedClient{conn: conn}
}

var _ ports.Subscriber = (*feedClient)(nil)

// Deliver pushes one ride snapshot over the socket. Write errors propagate so
// the bus drops this handle.
func (client *feedClient) Deliver(snapshot ride.Ride) error {
	return client.writeJSON(snapshot)
}

// writeJSON serializes writes; the bus and the keepalive loop share the
// connection.
func (client *feedClient) writeJSON(v any) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return client.conn.WriteJSON(v)
}

// ping sends a control frame under the shared write lock.
func (client *feedClient) ping() error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}
