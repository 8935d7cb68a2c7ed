package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servora/realtime/internal/protocol"
	"github.com/servora/realtime/internal/storage"
	"github.com/servora/realtime/pkg/logger"
)

type fakeStore struct {
	messages   []storage.ChatMessage
	createErr  error
	markedChat string
	markedBy   string
}

func (s *fakeStore) Close() error                      { return nil }
func (s *fakeStore) Migrate(context.Context) error     { return nil }
func (s *fakeStore) CreateMessage(_ context.Context, msg *storage.ChatMessage) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.messages = append(s.messages, *msg)
	return nil
}
func (s *fakeStore) GetMessageByID(_ context.Context, id string) (*storage.ChatMessage, error) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return &s.messages[i], nil
		}
	}
	return nil, storage.ErrNotFound
}
func (s *fakeStore) ListMessagesByChat(_ context.Context, chatID string, limit int) ([]storage.ChatMessage, error) {
	var out []storage.ChatMessage
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
func (s *fakeStore) MarkMessagesRead(_ context.Context, chatID, readerID string) error {
	s.markedChat = chatID
	s.markedBy = readerID
	return nil
}

type publishCall struct {
	room    string
	event   protocol.MessageType
	payload interface{}
}

type recordingPublisher struct {
	calls []publishCall
}

func (p *recordingPublisher) Publish(room string, event protocol.MessageType, payload interface{}) {
	p.calls = append(p.calls, publishCall{room: room, event: event, payload: payload})
}

func newTestService() (*Service, *fakeStore, *recordingPublisher) {
	store := &fakeStore{}
	pub := &recordingPublisher{}
	return NewService(store, pub, logger.NewLogger("error")), store, pub
}

func TestSendPersistsThenPublishes(t *testing.T) {
	svc, store, pub := newTestService()

	msg, err := svc.Send(context.Background(), SendRequest{
		ChatID:     "c1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    "hello",
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.CreatedAt.IsZero())
	require.Equal(t, protocol.MessageKindText, msg.Kind)

	// The persisted record is independently fetchable.
	stored, err := store.GetMessageByID(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, "hello", stored.Content)

	// One publish into the chat room, one into the receiver's user room,
	// both carrying the persisted id and timestamp.
	require.Len(t, pub.calls, 2)
	require.Equal(t, "chat-c1", pub.calls[0].room)
	require.Equal(t, "user-u2", pub.calls[1].room)
	for _, call := range pub.calls {
		require.Equal(t, protocol.EventNewMessage, call.event)
		payload, ok := call.payload.(protocol.ChatMessage)
		require.True(t, ok)
		require.Equal(t, msg.ID, payload.ID)
		require.Equal(t, msg.CreatedAt, payload.CreatedAt)
	}
}

func TestSendPersistFailureSuppressesPublish(t *testing.T) {
	svc, store, pub := newTestService()
	store.createErr = errors.New("disk full")

	_, err := svc.Send(context.Background(), SendRequest{
		ChatID:     "c1",
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    "hello",
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "persist message")
	require.Empty(t, pub.calls, "an unpersisted message must never be published")
}

func TestSendValidation(t *testing.T) {
	svc, _, pub := newTestService()

	cases := []struct {
		name string
		req  SendRequest
	}{
		{"missing chat", SendRequest{ReceiverID: "u2", Content: "hi"}},
		{"missing receiver", SendRequest{ChatID: "c1", Content: "hi"}},
		{"blank content", SendRequest{ChatID: "c1", ReceiverID: "u2", Content: "   "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), tc.req)
			require.Error(t, err)
		})
	}
	require.Empty(t, pub.calls)
}

func TestMarkReadPublishesNothing(t *testing.T) {
	svc, store, pub := newTestService()

	require.NoError(t, svc.MarkRead(context.Background(), "c1", "u2"))
	require.Equal(t, "c1", store.markedChat)
	require.Equal(t, "u2", store.markedBy)
	require.Empty(t, pub.calls, "read receipts are pulled, not pushed")
}

func TestHistory(t *testing.T) {
	svc, store, _ := newTestService()

	base := time.Now().UTC()
	for i, content := range []string{"one", "two", "three"} {
		store.messages = append(store.messages, storage.ChatMessage{
			ID:        content,
			ChatID:    "c1",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	store.messages = append(store.messages, storage.ChatMessage{ID: "other", ChatID: "c2"})

	history, err := svc.History(context.Background(), "c1", 2)
	require.NoError(t, err)
	require.Equal(t, "c1", history.ChatID)
	require.Len(t, history.Messages, 2)
	require.Equal(t, "two", history.Messages[0].ID)
	require.Equal(t, "three", history.Messages[1].ID)
}
