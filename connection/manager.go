package connection

import (
	"fmt"
	"sync"
)

// Manager holds a mapping from ResponderId to connection, shared behind
// a single reader/writer lock used read-dominated. Manager values are
// cheap to copy: the copy shares the same underlying
// registry, mirroring an Arc<RwLock<HashMap>> clone.
type Manager[C Connection] struct {
	state *managerState[C]
}

type managerState[C Connection] struct {
	mu          sync.RWMutex
	connections map[ResponderId]C
}

// NewManager derives each connection's ResponderId from its URI and
// installs it. It panics if a URI cannot yield a ResponderId, or if two
// connections share one: both are construction-time misconfigurations,
// not runtime conditions to recover from.
func NewManager[C Connection](conns []C) *Manager[C] {
	state := &managerState[C]{connections: make(map[ResponderId]C, len(conns))}
	for _, c := range conns {
		id, err := c.ResponderID()
		if err != nil {
			panic(fmt.Sprintf("connection: manager construction: %v", err))
		}
		if _, exists := state.connections[id]; exists {
			panic(fmt.Sprintf("connection: manager construction: duplicate responder id %q", id))
		}
		state.connections[id] = c
	}
	return &Manager[C]{state: state}
}

// Clone returns a Manager sharing the same underlying registry; both
// handles observe each other's subsequent state (there is none to
// mutate post-construction beyond per-connection attestation, which
// lives behind each connection's own mutex).
func (m *Manager[C]) Clone() *Manager[C] { return &Manager[C]{state: m.state} }

// ResponderIDs returns every registered peer identity, in no particular
// order.
func (m *Manager[C]) ResponderIDs() []ResponderId {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	ids := make([]ResponderId, 0, len(m.state.connections))
	for id := range m.state.connections {
		ids = append(ids, id)
	}
	return ids
}

// Connections returns every registered connection, in no particular
// order.
func (m *Manager[C]) Connections() []C {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	out := make([]C, 0, len(m.state.connections))
	for _, c := range m.state.connections {
		out = append(out, c)
	}
	return out
}

// GetConnection looks up the connection for id.
func (m *Manager[C]) GetConnection(id ResponderId) (C, bool) {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	c, ok := m.state.connections[id]
	return c, ok
}

// Len returns the number of registered connections.
func (m *Manager[C]) Len() int {
	m.state.mu.RLock()
	defer m.state.mu.RUnlock()
	return len(m.state.connections)
}

// IsEmpty reports whether the manager holds no connections.
func (m *Manager[C]) IsEmpty() bool { return m.Len() == 0 }
