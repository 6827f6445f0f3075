// Package ws adapts gorilla/websocket connections to the registry.Conn
// interface used by the scheduler for notification delivery.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jfowler/remind-api/internal/registry"
)

// defaultWriteWait bounds a write when the caller's context carries no
// deadline of its own.
const defaultWriteWait = 10 * time.Second

// Conn wraps a gorilla websocket connection. gorilla allows at most one
// concurrent writer, so all writes are serialized through a mutex.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// Ensure Conn implements registry.Conn interface
var _ registry.Conn = (*Conn)(nil)

// Wrap adapts an upgraded websocket connection.
func Wrap(wsConn *websocket.Conn) *Conn {
	return &Conn{ws: wsConn}
}

// Send delivers a text message, honoring the context deadline. A stalled
// peer fails the write instead of blocking the caller.
func (c *Conn) Send(ctx context.Context, message []byte) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteWait)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, message)
}

// Close sends a close control frame with the given code and reason, then
// tears down the underlying connection.
func (c *Conn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(code, reason)
	// Best effort: the peer may already be gone.
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(defaultWriteWait))
	return c.ws.Close()
}

// ReadLoop consumes inbound frames until the connection errors or closes.
// Inbound payloads are not interpreted; the loop exists only to service
// control frames and to notice disconnects. It returns the read error
// that terminated the loop.
func (c *Conn) ReadLoop() error {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return err
		}
	}
}
