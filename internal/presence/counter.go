package presence

import (
	"context"
	"sync"
)

// Counter decorates a Tracker with per-user connection counts: a user opening
// a second connection stays active, and only the close of their last
// connection marks them offline.
type Counter struct {
	tracker Tracker

	mu     sync.Mutex
	counts map[string]int
}

// NewCounter wraps a tracker.
func NewCounter(tracker Tracker) *Counter {
	return &Counter{
		tracker: tracker,
		counts:  make(map[string]int),
	}
}

// Connected records one more connection for the user and reports them active
// on the first.
func (c *Counter) Connected(ctx context.Context, userID string) error {
	c.mu.Lock()
	c.counts[userID]++
	first := c.counts[userID] == 1
	c.mu.Unlock()

	if !first {
		return nil
	}
	return c.tracker.Connected(ctx, userID)
}

// Disconnected drops one connection for the user and reports them inactive
// once none remain. An unmatched disconnect is ignored.
func (c *Counter) Disconnected(ctx context.Context, userID string) error {
	c.mu.Lock()
	n, ok := c.counts[userID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	n--
	if n <= 0 {
		delete(c.counts, userID)
	} else {
		c.counts[userID] = n
	}
	c.mu.Unlock()

	if n > 0 {
		return nil
	}
	return c.tracker.Disconnected(ctx, userID)
}

// ActiveUsers delegates to the wrapped tracker.
func (c *Counter) ActiveUsers(ctx context.Context) ([]string, error) {
	return c.tracker.ActiveUsers(ctx)
}

// Online delegates to the wrapped tracker.
func (c *Counter) Online(ctx context.Context, userID string) (bool, error) {
	return c.tracker.Online(ctx, userID)
}

// Close delegates to the wrapped tracker.
func (c *Counter) Close() error {
	return c.tracker.Close()
}
