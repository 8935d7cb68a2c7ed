package protocol

import "time"

// MessageType enumerates every frame type crossing a connection, in both
// directions: client requests, acks, and the server-published events.
type MessageType string

// Client-to-server requests.
const (
	TypeJoinRoom  MessageType = "join-room"
	TypeLeaveRoom MessageType = "leave-room"
	TypeChatSend  MessageType = "chat-send"
	TypeChatRead  MessageType = "chat-read"
)

// Server-to-client frames outside the routed event set.
const (
	TypeAck         MessageType = "ack"
	TypeChatHistory MessageType = "chat-history"
)

// Routed events. This set is closed: REST mutation handlers publish exactly
// these types with the room conventions the clients expect.
const (
	EventNewBooking           MessageType = "new-booking"
	EventBookingStatusUpdated MessageType = "booking-status-updated"
	EventProviderVerified     MessageType = "provider-verified"
	EventProviderRejected     MessageType = "provider-rejected"
	EventProviderUpdated      MessageType = "provider-updated"
	EventProviderDeleted      MessageType = "provider:deleted"
	EventNewMessage           MessageType = "new-message"
)

// Envelope wraps every payload sent over the wire.
type Envelope struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Room      string      `json:"room,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AckPayload acknowledges a client request.
type AckPayload struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// JoinRoomRequest asks for membership in an arbitrary room.
type JoinRoomRequest struct {
	Room string `json:"room"`
}

// LeaveRoomRequest drops membership in a room.
type LeaveRoomRequest struct {
	Room string `json:"room"`
}

// ChatSendRequest carries an outgoing chat message. The sender identity is
// taken from the connection, never from the payload.
type ChatSendRequest struct {
	ChatID     string `json:"chat_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	Kind       string `json:"kind,omitempty"`
	FileURL    string `json:"file_url,omitempty"`
}

// ChatReadRequest marks a conversation's messages as read by the caller.
type ChatReadRequest struct {
	ChatID string `json:"chat_id"`
}

// ChatMessage is the persisted message record as delivered to clients.
type ChatMessage struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Kind       string    `json:"kind"`
	FileURL    string    `json:"file_url,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatHistory returns recent messages when a chat room is joined.
type ChatHistory struct {
	ChatID   string        `json:"chat_id"`
	Messages []ChatMessage `json:"messages"`
}

// ProviderDeletedPayload is the minimal record broadcast when a provider is
// removed; the full record no longer exists at publish time.
type ProviderDeletedPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message kinds carried by ChatMessage.
const (
	MessageKindText = "text"
	MessageKindFile = "file"
)
