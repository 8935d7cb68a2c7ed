package presence

import "context"

// Tracker records which users currently hold at least one connection. It is
// advisory state for the rest of the marketplace (who is online), not part
// of the delivery path.
type Tracker interface {
	Connected(ctx context.Context, userID string) error
	Disconnected(ctx context.Context, userID string) error
	ActiveUsers(ctx context.Context) ([]string, error)
	Online(ctx context.Context, userID string) (bool, error)
	Close() error
}

// NewNoop returns a tracker that records nothing; used when Redis is not
// configured.
func NewNoop() Tracker {
	return noopTracker{}
}

type noopTracker struct{}

func (noopTracker) Connected(context.Context, string) error    { return nil }
func (noopTracker) Disconnected(context.Context, string) error { return nil }
func (noopTracker) ActiveUsers(context.Context) ([]string, error) {
	return nil, nil
}
func (noopTracker) Online(context.Context, string) (bool, error) { return false, nil }
func (noopTracker) Close() error                                 { return nil }
