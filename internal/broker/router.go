package broker

import (
	"time"

	"github.com/google/uuid"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/pkg/logger"
)

// Bridge mirrors locally published envelopes to other broker instances.
type Bridge interface {
	Mirror(env protocol.Envelope)
}

// Router is the publish side of the broker: a dumb multiplexer that fans an
// event out to the current members of a room. It never inspects payloads,
// never queues, and never retries — a client not connected at publish time
// simply misses the event and reconciles against the REST API.
type Router struct {
	registry *Registry
	bridge   Bridge
	log      logger.Logger
}

// NewRouter constructs a router over the given registry.
func NewRouter(registry *Registry, log logger.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// SetBridge attaches a cross-instance mirror. Must be called during wiring.
func (r *Router) SetBridge(bridge Bridge) {
	r.bridge = bridge
}

// Publish delivers (event, payload) to every current member of the room.
// Publishing to an empty or unknown room is a no-op, not an error.
func (r *Router) Publish(room string, event protocol.MessageType, payload interface{}) {
	env := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      event,
		Room:      room,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	r.deliver(env)
	if r.bridge != nil {
		r.bridge.Mirror(env)
	}
}

// PublishAll publishes the same event to several rooms, one envelope each.
func (r *Router) PublishAll(rooms []string, event protocol.MessageType, payload interface{}) {
	for _, room := range rooms {
		r.Publish(room, event, payload)
	}
}

// PublishToRole publishes to the canonical room for a role and identity; it
// is the same mechanism as Publish, only the room key is derived.
func (r *Router) PublishToRole(role auth.Role, userID string, event protocol.MessageType, payload interface{}) {
	room, ok := RoleRoom(role, userID)
	if !ok {
		r.log.Warnf("publish to unknown role %q dropped", role)
		return
	}
	r.Publish(room, event, payload)
}

// Inject delivers an envelope that originated on another instance. It skips
// the bridge so mirrored traffic cannot loop.
func (r *Router) Inject(env protocol.Envelope) {
	r.deliver(env)
}

// deliver fans out against a snapshot of the member set. A failed or slow
// member only loses its own copy; the rest of the room is unaffected.
func (r *Router) deliver(env protocol.Envelope) {
	members := r.registry.MembersOf(env.Room)
	if len(members) == 0 {
		return
	}
	for _, conn := range members {
		if !conn.TrySend(env) {
			r.log.Debugf("dropped %s for connection %s room=%s", env.Type, conn.ID(), env.Room)
		}
	}
}
