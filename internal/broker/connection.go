package broker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/internal/protocol"
)

// State tracks the connection lifecycle. Closed is terminal; a connection is
// never reused.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// Connection is one authenticated, persistent channel to a client. It is
// owned exclusively by the Manager; the Registry holds non-owning references.
type Connection struct {
	id     string
	userID string
	role   auth.Role

	ws   *websocket.Conn
	send chan protocol.Envelope
	done chan struct{}

	state atomic.Int32

	mu    sync.Mutex
	rooms map[string]struct{}

	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, userID string, role auth.Role, sendBuffer int) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Connection{
		id:     uuid.NewString(),
		userID: userID,
		role:   role,
		ws:     ws,
		send:   make(chan protocol.Envelope, sendBuffer),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

// ID returns the server-assigned connection id.
func (c *Connection) ID() string { return c.id }

// UserID returns the authenticated user id.
func (c *Connection) UserID() string { return c.userID }

// Role returns the authenticated role.
func (c *Connection) Role() auth.Role { return c.role }

// State reports the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// Closed reports whether the connection reached its terminal state.
func (c *Connection) Closed() bool { return c.State() == StateClosed }

func (c *Connection) markOpen() {
	c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// close transitions to Closed and releases the write pump. The send channel
// is never closed so an in-flight fan-out racing with close cannot panic;
// anything still buffered is dropped with the connection.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
	})
}

// TrySend enqueues an envelope without blocking. A full buffer or a closed
// connection drops the envelope; delivery is at-most-once by design.
func (c *Connection) TrySend(env protocol.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Send enqueues an envelope, blocking until there is buffer space, the
// connection closes, or the context is canceled. Used for direct replies
// (acks, history) where dropping would confuse the client.
func (c *Connection) Send(ctx context.Context, env protocol.Envelope) error {
	select {
	case c.send <- env:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rooms returns a snapshot of the rooms this connection belongs to.
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// InRoom reports current membership in the given room.
func (c *Connection) InRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Connection) addRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = struct{}{}
}

func (c *Connection) removeRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// ReadPump decodes inbound frames and hands them to onMessage until the
// socket errors or the context is canceled. It blocks; the caller closes the
// connection when it returns.
func (c *Connection) ReadPump(ctx context.Context, onMessage func(protocol.Envelope)) {
	for {
		if ctx.Err() != nil {
			return
		}
		var env protocol.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return
		}
		onMessage(env)
	}
}

// WritePump drains the send channel onto the socket. A write failure to this
// connection never propagates to other connections.
func (c *Connection) WritePump(writeTimeout time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case env := <-c.send:
			if writeTimeout > 0 {
				if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		}
	}
}
