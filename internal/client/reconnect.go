package client

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// handleDrop runs after an unexpected read failure. It retries up to the
// configured number of attempts with a flat delay between them. Before every
// attempt it re-checks identity: a logged-out user short-circuits straight
// to the terminal disconnected state. Exhausting retries is terminal and
// silent at the broker level; surfacing it is the UI's job, via the
// OnDisconnect callbacks.
func (c *Client) handleDrop(ws *websocket.Conn) {
	c.mu.Lock()
	if c.closed || c.ws != ws {
		// Deliberate Close already ran, or this read loop belongs to a
		// socket that was already replaced.
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.mu.Unlock()
	_ = ws.Close()

	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		if _, ok := c.token(); !ok {
			c.log.Infof("reconnect abandoned: no identity")
			c.fireDisconnect()
			return
		}

		time.Sleep(c.cfg.ReconnectDelay)

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}

		if err := c.dial(context.Background()); err != nil {
			c.log.Warnf("reconnect attempt %d/%d failed: %v", attempt, c.cfg.ReconnectAttempts, err)
			continue
		}

		c.log.Infof("reconnected after %d attempt(s)", attempt)
		c.fireReconnect()
		return
	}

	c.log.Errorf("reconnect attempts exhausted")
	c.fireDisconnect()
}

func (c *Client) fireReconnect() {
	c.mu.Lock()
	fns := append([]func(){}, c.onReconnect...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Client) fireDisconnect() {
	c.mu.Lock()
	fns := append([]func(){}, c.onDisconnect...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
