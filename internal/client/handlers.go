package client

import "github.com/servora/realtime/internal/protocol"

// HandlerFunc consumes one delivered envelope.
type HandlerFunc func(env protocol.Envelope)

// On registers a handler for an event type and returns its deregistration
// func. Callers must deregister when their owner goes away; Close also
// clears everything.
func (c *Client) On(event protocol.MessageType, fn HandlerFunc) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}

	c.nextHandlerID++
	id := c.nextHandlerID
	if _, ok := c.handlers[event]; !ok {
		c.handlers[event] = make(map[int]HandlerFunc)
	}
	c.handlers[event][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if fns, ok := c.handlers[event]; ok {
			delete(fns, id)
			if len(fns) == 0 {
				delete(c.handlers, event)
			}
		}
	}
}

// OnReconnect registers a callback fired after a successful reconnect; this
// is where callers re-join ad-hoc rooms, which the server does not remember.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = append(c.onReconnect, fn)
}

// OnDisconnect registers a callback fired when the session drops for good:
// either retries are exhausted or the identity is gone.
func (c *Client) OnDisconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = append(c.onDisconnect, fn)
}

func (c *Client) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	fns := make([]HandlerFunc, 0, len(c.handlers[env.Type]))
	for _, fn := range c.handlers[env.Type] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(env)
	}
}
