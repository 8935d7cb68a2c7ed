package broker

import (
	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/pkg/logger"
)

// Resolver decides which rooms a freshly opened connection joins
// automatically, and applies explicit join requests thereafter. Explicit
// joins are unrestricted by role: the broker authorizes membership, never
// room content — what gets published to a room is the publisher's problem.
type Resolver struct {
	registry *Registry
	log      logger.Logger
}

// NewResolver constructs a resolver over the given registry.
func NewResolver(registry *Registry, log logger.Logger) *Resolver {
	return &Resolver{registry: registry, log: log}
}

// AutoRooms returns the rooms a role joins at connect time. The rule table
// is exhaustive: customers get their user room, providers their provider
// room, admins the shared admin room. Nothing else is implicit — chat rooms
// in particular are always explicit joins.
func (r *Resolver) AutoRooms(role auth.Role, userID string) []string {
	room, ok := RoleRoom(role, userID)
	if !ok {
		return nil
	}
	return []string{room}
}

// Apply runs the automatic joins for the connection and returns the rooms
// joined. On reconnect this runs from scratch: prior explicit joins are not
// remembered, the client re-requests them from its current screen.
func (r *Resolver) Apply(conn *Connection) []string {
	rooms := r.AutoRooms(conn.Role(), conn.UserID())
	for _, room := range rooms {
		r.registry.Join(conn, room)
	}
	if len(rooms) > 0 {
		r.log.Debugf("auto-joined id=%s rooms=%v", conn.ID(), rooms)
	}
	return rooms
}

// Join applies an explicit join request.
func (r *Resolver) Join(conn *Connection, room string) {
	r.registry.Join(conn, room)
}

// Leave applies an explicit leave request.
func (r *Resolver) Leave(conn *Connection, room string) {
	r.registry.Leave(conn, room)
}
