package server

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is one live connection's registry entry. A participant may hold
// several connections at once; each gets its own entry and its own buffered
// event queue.
type Conn struct {
	ID            uuid.UUID
	ParticipantID string

	send      chan []byte
	closeSlow func()
}

// NewConn creates a registry entry. closeSlow is invoked (once, by the
// broadcaster) when the connection cannot keep up with fanout and is being
// dropped.
func NewConn(participantID string, buffer int, closeSlow func()) *Conn {
	return &Conn{
		ID:            uuid.New(),
		ParticipantID: participantID,
		send:          make(chan []byte, buffer),
		closeSlow:     closeSlow,
	}
}

// Events returns the serialized events queued for this connection.
func (c *Conn) Events() <-chan []byte { return c.send }

// Registry tracks currently-connected participant sessions. It is an
// injected, explicitly-scoped object (not a process-wide singleton) so tests
// can instantiate independent registries. All operations are safe under
// unbounded concurrent callers.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*Conn)}
}

func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()
}

// Unregister is idempotent; closing a connection at any time, including
// mid-fanout, is safe.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	delete(r.conns, c.ID)
	r.mu.Unlock()
}

// Snapshot returns the current members. Fanout iterates this copy, so
// concurrent connects and disconnects during a slow delivery neither corrupt
// iteration nor block new connections.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
