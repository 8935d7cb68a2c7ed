package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// Payloads reach the decode helpers as generic JSON values, the way they
// look after an envelope passed through the wire.
func asWirePayload(t *testing.T, v interface{}) interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var generic interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	return generic
}

func TestDecodeJoinRoom(t *testing.T) {
	payload := asWirePayload(t, JoinRoomRequest{Room: "chat-7"})
	req, err := DecodeJoinRoom(payload)
	require.NoError(t, err)
	require.Equal(t, "chat-7", req.Room)
}

func TestDecodeChatSend(t *testing.T) {
	payload := asWirePayload(t, ChatSendRequest{
		ChatID:     "c1",
		ReceiverID: "u2",
		Content:    "hello",
		Kind:       MessageKindFile,
		FileURL:    "https://cdn.example/f.png",
	})
	req, err := DecodeChatSend(payload)
	require.NoError(t, err)
	require.Equal(t, "u2", req.ReceiverID)
	require.Equal(t, MessageKindFile, req.Kind)
}

func TestDecodeAck(t *testing.T) {
	payload := asWirePayload(t, AckPayload{ReferenceID: "r1", Status: "error", Reason: "room required"})
	ack, err := DecodeAck(payload)
	require.NoError(t, err)
	require.Equal(t, "r1", ack.ReferenceID)
	require.Equal(t, "room required", ack.Reason)
}

func TestDecodeNilPayloadFails(t *testing.T) {
	_, err := DecodeAck(nil)
	require.Error(t, err)
	_, err = DecodeChatMessage(nil)
	require.Error(t, err)
}
