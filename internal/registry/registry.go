// Package registry tracks live notification connections by owner. Records
// are purely in-memory; every new connection registers itself from
// scratch, so nothing here survives a restart.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Conn is a duplex connection handle capable of delivering text
// notifications. Implementations must honor the context deadline on Send
// so a stalled peer cannot block a delivery pass.
type Conn interface {
	// Send delivers a text message to the peer.
	Send(ctx context.Context, message []byte) error

	// Close terminates the connection with a close code and reason.
	Close(code int, reason string) error
}

// Registry maps user IDs to their live connections. A user may hold any
// number of simultaneous connections (multiple devices).
type Registry struct {
	mu    sync.Mutex
	conns map[uuid.UUID][]Conn
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID][]Conn),
	}
}

// Register adds a connection for the given user. Duplicate registrations
// for a user are allowed.
func (r *Registry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = append(r.conns[userID], conn)
}

// Unregister removes every record holding this exact connection handle.
// Unregistering an unknown connection is a no-op.
func (r *Registry) Unregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, conns := range r.conns {
		kept := conns[:0]
		for _, c := range conns {
			if c != conn {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(r.conns, userID)
		} else {
			r.conns[userID] = kept
		}
	}
}

// ConnectionsFor returns a snapshot of the connections registered for the
// given user. The snapshot is safe to iterate while deliveries trigger
// concurrent disconnects.
func (r *Registry) ConnectionsFor(userID uuid.UUID) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.conns[userID]
	if len(conns) == 0 {
		return nil
	}
	snapshot := make([]Conn, len(conns))
	copy(snapshot, conns)
	return snapshot
}

// Len reports the total number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, conns := range r.conns {
		n += len(conns)
	}
	return n
}
