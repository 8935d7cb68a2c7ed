package client

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/servora/realtime/internal/config"
	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/pkg/logger"
)

var (
	// ErrNoIdentity means no authenticated session exists; the client will
	// not dial, and a drop with no identity is terminal.
	ErrNoIdentity = errors.New("no authenticated identity")
	// ErrNotConnected means a request was issued while disconnected.
	ErrNotConnected = errors.New("not connected")
	// ErrClientClosed means the client was torn down for good.
	ErrClientClosed = errors.New("client closed")
)

// TokenFunc supplies the current identity token. Returning false means the
// user is logged out.
type TokenFunc func() (string, bool)

// Client is the broker-side handle a feature receives via injection: one
// logical session whose lifetime is tied to the authenticated user, not to
// process start. The server re-runs role auto-joins on every (re)connect;
// ad-hoc rooms must be re-requested by the caller, typically from an
// OnReconnect callback.
type Client struct {
	cfg   config.ClientConfig
	token TokenFunc
	log   logger.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool

	handlers      map[protocol.MessageType]map[int]HandlerFunc
	nextHandlerID int

	onReconnect  []func()
	onDisconnect []func()
}

// New constructs a client; it does not dial until Connect.
func New(cfg config.ClientConfig, token TokenFunc, log logger.Logger) *Client {
	return &Client{
		cfg:      cfg,
		token:    token,
		log:      log,
		handlers: make(map[protocol.MessageType]map[int]HandlerFunc),
	}
}

// Connect establishes the session and starts consuming events. It fails
// without dialing when no identity is present.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.mu.Unlock()

	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	token, ok := c.token()
	if !ok {
		return ErrNoIdentity
	}

	endpoint, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return err
	}
	query := endpoint.Query()
	query.Set("token", token)
	endpoint.RawQuery = query.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		return ErrClientClosed
	}
	c.ws = ws
	c.mu.Unlock()

	go c.readLoop(ws)
	return nil
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		var env protocol.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			c.handleDrop(ws)
			return
		}
		c.dispatch(env)
	}
}

// JoinRoom requests membership in an arbitrary room, e.g. a chat room when
// the user opens that conversation.
func (c *Client) JoinRoom(room string) error {
	return c.send(protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: room})
}

// LeaveRoom drops membership in a room.
func (c *Client) LeaveRoom(room string) error {
	return c.send(protocol.TypeLeaveRoom, protocol.LeaveRoomRequest{Room: room})
}

// SendChat submits a chat message. Delivery back to the room happens only
// after the server persisted it.
func (c *Client) SendChat(req protocol.ChatSendRequest) error {
	return c.send(protocol.TypeChatSend, req)
}

// MarkRead marks the conversation's messages to this user as read.
func (c *Client) MarkRead(chatID string) error {
	return c.send(protocol.TypeChatRead, protocol.ChatReadRequest{ChatID: chatID})
}

func (c *Client) send(msgType protocol.MessageType, payload interface{}) error {
	env := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.ws == nil {
		return ErrNotConnected
	}
	return c.ws.WriteJSON(env)
}

// Connected reports whether a live socket exists right now.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil && !c.closed
}

// Close tears the session down for good and deregisters every handler, so
// no handler can outlive its owner.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	c.ws = nil
	c.handlers = make(map[protocol.MessageType]map[int]HandlerFunc)
	c.onReconnect = nil
	c.onDisconnect = nil
	c.mu.Unlock()

	if ws != nil {
		return ws.Close()
	}
	return nil
}
