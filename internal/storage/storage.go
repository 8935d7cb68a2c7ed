package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ChatMessage is the persisted conversation message. The store is the source
// of truth; the broker only transports references to committed records.
type ChatMessage struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	Kind       string
	FileURL    string
	Read       bool
	CreatedAt  time.Time
}

// Store defines persistence operations used by the chat subsystem.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateMessage(ctx context.Context, msg *ChatMessage) error
	GetMessageByID(ctx context.Context, id string) (*ChatMessage, error)
	ListMessagesByChat(ctx context.Context, chatID string, limit int) ([]ChatMessage, error)
	MarkMessagesRead(ctx context.Context, chatID, readerID string) error
}
