package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/servora/realtime/internal/config"
	"github.com/servora/realtime/internal/storage"
)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type chatMessageModel struct {
	ID         string `gorm:"primaryKey"`
	ChatID     string `gorm:"index"`
	SenderID   string `gorm:"index"`
	ReceiverID string `gorm:"index"`
	Content    string
	Kind       string
	FileURL    string
	Read       bool
	CreatedAt  time.Time
}

func (chatMessageModel) TableName() string { return "chat_messages" }

// NewStore opens a SQLite database at the provided path.
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&chatMessageModel{})
}

// CreateMessage stores a new chat message record.
func (s *Store) CreateMessage(ctx context.Context, msg *storage.ChatMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	model := toModel(msg)
	return s.db.WithContext(ctx).Create(&model).Error
}

// GetMessageByID retrieves one message.
func (s *Store) GetMessageByID(ctx context.Context, id string) (*storage.ChatMessage, error) {
	var model chatMessageModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	msg := toRecord(model)
	return &msg, nil
}

// ListMessagesByChat returns the most recent messages of a conversation in
// chronological order.
func (s *Store) ListMessagesByChat(ctx context.Context, chatID string, limit int) ([]storage.ChatMessage, error) {
	var models []chatMessageModel
	query := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	messages := make([]storage.ChatMessage, 0, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		messages = append(messages, toRecord(models[i]))
	}
	return messages, nil
}

// MarkMessagesRead flips the read flag on every message addressed to the
// reader in the given conversation.
func (s *Store) MarkMessagesRead(ctx context.Context, chatID, readerID string) error {
	return s.db.WithContext(ctx).
		Model(&chatMessageModel{}).
		Where("chat_id = ? AND receiver_id = ? AND read = ?", chatID, readerID, false).
		Update("read", true).Error
}

func toModel(msg *storage.ChatMessage) chatMessageModel {
	return chatMessageModel{
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

func toRecord(model chatMessageModel) storage.ChatMessage {
	return storage.ChatMessage{
		ID:         model.ID,
		ChatID:     model.ChatID,
		SenderID:   model.SenderID,
		ReceiverID: model.ReceiverID,
		Content:    model.Content,
		Kind:       model.Kind,
		FileURL:    model.FileURL,
		Read:       model.Read,
		CreatedAt:  model.CreatedAt,
	}
}
