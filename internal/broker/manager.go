package broker

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/pkg/logger"
)

// ErrConnectionClosed is returned when sending on a terminal connection.
var ErrConnectionClosed = errors.New("connection closed")

// Manager owns the set of live connections. Nothing else creates or destroys
// a Connection; open and close are the only lifecycle events the rest of the
// system observes, via the registered hooks.
type Manager struct {
	mu      sync.RWMutex
	conns   map[string]*Connection
	onOpen  []func(*Connection)
	onClose []func(*Connection)

	registry   *Registry
	sendBuffer int
	log        logger.Logger
}

// NewManager constructs a manager bound to the given registry.
func NewManager(registry *Registry, sendBuffer int, log logger.Logger) *Manager {
	return &Manager{
		conns:      make(map[string]*Connection),
		registry:   registry,
		sendBuffer: sendBuffer,
		log:        log,
	}
}

// OnOpen registers a hook invoked after a connection is admitted. Hooks must
// be registered during wiring, before the manager accepts traffic.
func (m *Manager) OnOpen(fn func(*Connection)) {
	m.onOpen = append(m.onOpen, fn)
}

// OnClose registers a hook invoked after a connection is discarded.
func (m *Manager) OnClose(fn func(*Connection)) {
	m.onClose = append(m.onClose, fn)
}

// Accept admits an authenticated transport as a live Connection. Callers
// must have verified identity already; unauthenticated sockets never reach
// the manager or the registry.
func (m *Manager) Accept(ws *websocket.Conn, claims *auth.Claims) *Connection {
	conn := newConnection(ws, claims.UserID, claims.Role, m.sendBuffer)
	conn.markOpen()

	m.mu.Lock()
	m.conns[conn.id] = conn
	m.mu.Unlock()

	m.log.Infof("connection open id=%s user=%s role=%s", conn.id, conn.userID, conn.role)
	for _, fn := range m.onOpen {
		fn(conn)
	}
	return conn
}

// Close removes the connection from every room and discards it. Closing an
// already-closed connection is a no-op.
func (m *Manager) Close(connID string) {
	m.mu.Lock()
	conn, ok := m.conns[connID]
	if ok {
		delete(m.conns, connID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	conn.close()
	m.registry.LeaveAll(conn)
	if conn.ws != nil {
		_ = conn.ws.Close()
	}

	m.log.Infof("connection closed id=%s user=%s", conn.id, conn.userID)
	for _, fn := range m.onClose {
		fn(conn)
	}
}

// CloseAll tears down every live connection; used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Close(id)
	}
}

// Get returns a live connection by id.
func (m *Manager) Get(connID string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

// Len reports the number of live connections.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}
