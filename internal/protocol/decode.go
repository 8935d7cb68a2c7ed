package protocol

import (
	"encoding/json"
	"fmt"
)

// Payloads arrive as generic JSON values after envelope decoding; each helper
// re-marshals into its typed form.

func decodePayload(payload interface{}, out interface{}) error {
	if payload == nil {
		return fmt.Errorf("payload empty")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// DecodeAck extracts an ack payload from an envelope payload.
func DecodeAck(payload interface{}) (AckPayload, error) {
	var ack AckPayload
	err := decodePayload(payload, &ack)
	return ack, err
}

// DecodeJoinRoom extracts a join-room request.
func DecodeJoinRoom(payload interface{}) (JoinRoomRequest, error) {
	var req JoinRoomRequest
	err := decodePayload(payload, &req)
	return req, err
}

// DecodeLeaveRoom extracts a leave-room request.
func DecodeLeaveRoom(payload interface{}) (LeaveRoomRequest, error) {
	var req LeaveRoomRequest
	err := decodePayload(payload, &req)
	return req, err
}

// DecodeChatSend extracts a chat-send request.
func DecodeChatSend(payload interface{}) (ChatSendRequest, error) {
	var req ChatSendRequest
	err := decodePayload(payload, &req)
	return req, err
}

// DecodeChatRead extracts a chat-read request.
func DecodeChatRead(payload interface{}) (ChatReadRequest, error) {
	var req ChatReadRequest
	err := decodePayload(payload, &req)
	return req, err
}

// DecodeChatMessage extracts a delivered chat message.
func DecodeChatMessage(payload interface{}) (ChatMessage, error) {
	var msg ChatMessage
	err := decodePayload(payload, &msg)
	return msg, err
}

// DecodeChatHistory extracts a chat history payload.
func DecodeChatHistory(payload interface{}) (ChatHistory, error) {
	var history ChatHistory
	err := decodePayload(payload, &history)
	return history, err
}
