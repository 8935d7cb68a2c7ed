package broker

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// Registry maintains the room -> members relation. Rooms are emergent: an
// entry exists only while it has at least one member. The map is sharded by
// room key so fan-out on one room never blocks joins into another.
type Registry struct {
	shards [shardCount]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection
}

// NewRegistry initializes an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].rooms = make(map[string]map[string]*Connection)
	}
	return r
}

func (r *Registry) shardFor(room string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(room))
	return &r.shards[h.Sum32()%shardCount]
}

// Join adds the connection to the room, creating the room on first join.
// Joining twice is a no-op, and joining on behalf of a closed connection is
// a silent no-op: a close racing a late join request is expected.
func (r *Registry) Join(conn *Connection, room string) {
	if conn == nil || room == "" || conn.Closed() {
		return
	}

	shard := r.shardFor(room)
	shard.mu.Lock()
	members, ok := shard.rooms[room]
	if !ok {
		members = make(map[string]*Connection)
		shard.rooms[room] = members
	}
	members[conn.id] = conn
	shard.mu.Unlock()

	conn.addRoom(room)

	// The connection may have closed between the state check and the insert;
	// undo so no closed connection lingers in a member set.
	if conn.Closed() {
		r.Leave(conn, room)
	}
}

// Leave removes the connection from the room and drops the room once empty.
func (r *Registry) Leave(conn *Connection, room string) {
	if conn == nil || room == "" {
		return
	}

	shard := r.shardFor(room)
	shard.mu.Lock()
	if members, ok := shard.rooms[room]; ok {
		delete(members, conn.id)
		if len(members) == 0 {
			delete(shard.rooms, room)
		}
	}
	shard.mu.Unlock()

	conn.removeRoom(room)
}

// LeaveAll removes the connection from every room it belongs to.
func (r *Registry) LeaveAll(conn *Connection) {
	if conn == nil {
		return
	}
	for _, room := range conn.Rooms() {
		r.Leave(conn, room)
	}
}

// MembersOf returns a snapshot of the room's members. The snapshot is safe
// to iterate while joins and leaves proceed concurrently; a member joining
// after the snapshot legitimately misses that publish.
func (r *Registry) MembersOf(room string) []*Connection {
	shard := r.shardFor(room)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	members := shard.rooms[room]
	if len(members) == 0 {
		return nil
	}
	snapshot := make([]*Connection, 0, len(members))
	for _, conn := range members {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// RoomSize returns the current member count without copying.
func (r *Registry) RoomSize(room string) int {
	shard := r.shardFor(room)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.rooms[room])
}
