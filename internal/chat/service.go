package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servora/realtime/internal/broker"
	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/internal/storage"
	"github.com/servora/realtime/pkg/logger"
)

var (
	errEmptyChat     = errors.New("chat id required")
	errEmptyContent  = errors.New("message content required")
	errEmptyReceiver = errors.New("receiver id required")
)

// SendRequest describes one outgoing message. The sender id comes from the
// authenticated connection, never from client input.
type SendRequest struct {
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	Kind       string
	FileURL    string
}

// Publisher is the slice of the router the chat subsystem uses.
type Publisher interface {
	Publish(room string, event protocol.MessageType, payload interface{})
}

// Service implements message send/read on top of the broker, with the store
// as source of truth.
type Service struct {
	store  storage.Store
	router Publisher
	log    logger.Logger
}

// NewService constructs the chat service.
func NewService(store storage.Store, router Publisher, log logger.Logger) *Service {
	return &Service{store: store, router: router, log: log}
}

// Send persists the message and then publishes it. The order is a hard
// invariant: a new-message event must always reference a record that can be
// fetched from the store, so a persist failure means no publish at all.
func (s *Service) Send(ctx context.Context, req SendRequest) (*storage.ChatMessage, error) {
	if strings.TrimSpace(req.ChatID) == "" {
		return nil, errEmptyChat
	}
	if strings.TrimSpace(req.ReceiverID) == "" {
		return nil, errEmptyReceiver
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errEmptyContent
	}

	kind := req.Kind
	if kind == "" {
		kind = protocol.MessageKindText
	}

	msg := &storage.ChatMessage{
		ID:         uuid.NewString(),
		ChatID:     req.ChatID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    content,
		Kind:       kind,
		FileURL:    req.FileURL,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	payload := ToProtocolMessage(*msg)
	s.router.Publish(broker.ChatRoom(msg.ChatID), protocol.EventNewMessage, payload)
	s.router.Publish(broker.UserRoom(msg.ReceiverID), protocol.EventNewMessage, payload)

	s.log.Debugf("message sent id=%s chat=%s", msg.ID, msg.ChatID)
	return msg, nil
}

// MarkRead flips the read flag on messages addressed to the reader. No event
// is published: readers pull updated state on their next fetch.
func (s *Service) MarkRead(ctx context.Context, chatID, readerID string) error {
	if strings.TrimSpace(chatID) == "" {
		return errEmptyChat
	}
	if err := s.store.MarkMessagesRead(ctx, chatID, readerID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// History returns the most recent messages of a conversation.
func (s *Service) History(ctx context.Context, chatID string, limit int) (protocol.ChatHistory, error) {
	history := protocol.ChatHistory{ChatID: chatID}
	if strings.TrimSpace(chatID) == "" {
		return history, errEmptyChat
	}

	messages, err := s.store.ListMessagesByChat(ctx, chatID, limit)
	if err != nil {
		return history, fmt.Errorf("list messages: %w", err)
	}

	history.Messages = make([]protocol.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		history.Messages = append(history.Messages, ToProtocolMessage(msg))
	}
	return history, nil
}

// ToProtocolMessage converts a stored record to its wire form.
func ToProtocolMessage(msg storage.ChatMessage) protocol.ChatMessage {
	return protocol.ChatMessage{
		ID:         msg.ID,
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		Kind:       msg.Kind,
		FileURL:    msg.FileURL,
		Read:       msg.Read,
		CreatedAt:  msg.CreatedAt,
	}
}
