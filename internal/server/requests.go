package server

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servora/realtime/internal/broker"
	"github.com/servora/realtime/internal/chat"
	"github.com/servora/realtime/internal/protocol"
)

const chatRoomPrefix = "chat-"

// routeRequest dispatches one inbound frame from an authenticated
// connection.
func (a *App) routeRequest(ctx context.Context, conn *broker.Connection, env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeJoinRoom:
		a.handleJoinRoom(ctx, conn, env)
	case protocol.TypeLeaveRoom:
		a.handleLeaveRoom(ctx, conn, env)
	case protocol.TypeChatSend:
		a.handleChatSend(ctx, conn, env)
	case protocol.TypeChatRead:
		a.handleChatRead(ctx, conn, env)
	default:
		a.sendAck(ctx, conn, env.ID, ackStatusError, "unsupported request")
	}
}

func (a *App) handleJoinRoom(ctx context.Context, conn *broker.Connection, env protocol.Envelope) {
	req, err := protocol.DecodeJoinRoom(env.Payload)
	if err != nil {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "invalid join payload")
		return
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "room required")
		return
	}

	a.resolver.Join(conn, room)
	a.sendAck(ctx, conn, env.ID, ackStatusOK, "")

	// Joining a conversation also replays its recent history, directly to
	// this connection only.
	if chatID, ok := strings.CutPrefix(room, chatRoomPrefix); ok {
		a.sendChatHistory(ctx, conn, chatID)
	}
}

func (a *App) handleLeaveRoom(ctx context.Context, conn *broker.Connection, env protocol.Envelope) {
	req, err := protocol.DecodeLeaveRoom(env.Payload)
	if err != nil {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "invalid leave payload")
		return
	}

	room := strings.TrimSpace(req.Room)
	if room == "" {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "room required")
		return
	}

	a.resolver.Leave(conn, room)
	a.sendAck(ctx, conn, env.ID, ackStatusOK, "")
}

func (a *App) handleChatSend(ctx context.Context, conn *broker.Connection, env protocol.Envelope) {
	req, err := protocol.DecodeChatSend(env.Payload)
	if err != nil {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "invalid message payload")
		return
	}

	msg, err := a.chat.Send(ctx, chat.SendRequest{
		ChatID:     req.ChatID,
		SenderID:   conn.UserID(),
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		Kind:       req.Kind,
		FileURL:    req.FileURL,
	})
	if err != nil {
		a.log.Errorf("chat send user=%s: %v", conn.UserID(), err)
		a.sendAck(ctx, conn, env.ID, ackStatusError, "message not stored")
		return
	}

	a.log.Debugf("chat message stored id=%s chat=%s user=%s", msg.ID, msg.ChatID, conn.UserID())
	a.sendAck(ctx, conn, env.ID, ackStatusOK, "")
}

func (a *App) handleChatRead(ctx context.Context, conn *broker.Connection, env protocol.Envelope) {
	req, err := protocol.DecodeChatRead(env.Payload)
	if err != nil {
		a.sendAck(ctx, conn, env.ID, ackStatusError, "invalid read payload")
		return
	}

	if err := a.chat.MarkRead(ctx, req.ChatID, conn.UserID()); err != nil {
		a.log.Errorf("mark read user=%s: %v", conn.UserID(), err)
		a.sendAck(ctx, conn, env.ID, ackStatusError, "read state not updated")
		return
	}

	a.sendAck(ctx, conn, env.ID, ackStatusOK, "")
}

func (a *App) sendChatHistory(ctx context.Context, conn *broker.Connection, chatID string) {
	history, err := a.chat.History(ctx, chatID, a.cfg.HistoryLimit)
	if err != nil {
		a.log.Errorf("chat history chat=%s: %v", chatID, err)
		return
	}

	env := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.TypeChatHistory,
		Room:      broker.ChatRoom(chatID),
		Timestamp: time.Now(),
		Payload:   history,
	}
	if err := conn.Send(ctx, env); err != nil {
		a.log.Errorf("send history to %s: %v", conn.ID(), err)
	}
}
