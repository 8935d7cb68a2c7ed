package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/servora/realtime/internal/broker"
	"github.com/servora/realtime/internal/protocol"
)

const (
	ackStatusOK    = "ok"
	ackStatusError = "error"
)

func (a *App) sendAck(ctx context.Context, conn *broker.Connection, referenceID, status, reason string) {
	ack := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.TypeAck,
		Timestamp: time.Now(),
		Payload: protocol.AckPayload{
			ReferenceID: referenceID,
			Status:      status,
			Reason:      reason,
		},
	}
	if err := conn.Send(ctx, ack); err != nil {
		a.log.Errorf("send ack to %s: %v", conn.ID(), err)
	}
}
