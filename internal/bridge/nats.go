package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/pkg/logger"
)

const (
	subjectPrefix   = "servora.room."
	subjectWildcard = "servora.room.>"
)

// wireEnvelope tags a routed envelope with its origin instance so a bridge
// never re-injects its own traffic.
type wireEnvelope struct {
	Origin   string            `json:"origin"`
	Envelope protocol.Envelope `json:"envelope"`
}

// NATSBridge mirrors locally routed envelopes to NATS and re-injects
// envelopes published by other broker instances, so a room fans out across
// a horizontally scaled deployment.
type NATSBridge struct {
	conn       *nats.Conn
	sub        *nats.Subscription
	instanceID string
	log        logger.Logger
}

// NewNATSBridge connects to NATS. instanceID must be unique per process.
func NewNATSBridge(url, instanceID string, log logger.Logger) (*NATSBridge, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSBridge{
		conn:       conn,
		instanceID: instanceID,
		log:        log,
	}, nil
}

// Start subscribes to the room subjects and forwards remote envelopes to
// inject, which must deliver locally without re-mirroring.
func (b *NATSBridge) Start(inject func(protocol.Envelope)) error {
	sub, err := b.conn.Subscribe(subjectWildcard, func(msg *nats.Msg) {
		var wire wireEnvelope
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			b.log.Errorf("bridge: drop malformed envelope: %v", err)
			return
		}
		if wire.Origin == b.instanceID {
			return
		}
		inject(wire.Envelope)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subjectWildcard, err)
	}
	b.sub = sub
	return nil
}

// Mirror publishes the envelope to this room's subject. Mirroring is
// best-effort like the rest of the delivery path; a failure is logged and
// local fan-out stands.
func (b *NATSBridge) Mirror(env protocol.Envelope) {
	if env.Room == "" {
		return
	}
	data, err := json.Marshal(wireEnvelope{Origin: b.instanceID, Envelope: env})
	if err != nil {
		b.log.Errorf("bridge: marshal envelope: %v", err)
		return
	}
	if err := b.conn.Publish(subjectPrefix+env.Room, data); err != nil {
		b.log.Errorf("bridge: publish room=%s: %v", env.Room, err)
	}
}

// Close drains the subscription and closes the connection.
func (b *NATSBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
}
