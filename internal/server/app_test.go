package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/internal/broker"
	"github.com/servora/realtime/internal/config"
	"github.com/servora/realtime/internal/protocol"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ListenAddr: ":0",
		LogLevel:   "error",
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			Issuer:     "servora-test",
			Expiration: time.Hour,
		},
		Database:     config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "chat.db")},
		SendBuffer:   16,
		WriteTimeout: time.Second,
		HistoryLimit: 50,
	}
}

func newTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, app.store.Migrate(context.Background()))

	srv := httptest.NewServer(http.HandlerFunc(app.handleWebSocket))
	t.Cleanup(func() {
		srv.Close()
		app.manager.CloseAll()
		app.closeDependencies()
	})
	return app, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialWS(t *testing.T, app *App, srv *httptest.Server, userID string, role auth.Role) *websocket.Conn {
	t.Helper()
	token, err := auth.NewToken(app.cfg.JWT, userID, role)
	require.NoError(t, err)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) protocol.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env protocol.Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func sendRequest(t *testing.T, ws *websocket.Conn, msgType protocol.MessageType, payload interface{}) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(protocol.Envelope{
		ID:        "req-" + string(msgType),
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payload,
	}))
}

func awaitAck(t *testing.T, ws *websocket.Conn) protocol.AckPayload {
	t.Helper()
	env := readEnvelope(t, ws)
	require.Equal(t, protocol.TypeAck, env.Type)
	ack, err := protocol.DecodeAck(env.Payload)
	require.NoError(t, err)
	return ack
}

func TestRejectsMissingToken(t *testing.T) {
	_, srv := newTestApp(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRejectsInvalidToken(t *testing.T) {
	app, srv := newTestApp(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=garbage", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, app.manager.Len(), "no Connection may exist for a rejected socket")
}

func TestAutoJoinAndNotify(t *testing.T) {
	app, srv := newTestApp(t)
	ws := dialWS(t, app, srv, "p1", auth.RoleProvider)

	// The join ack doubles as a barrier: once it arrives, the automatic
	// role joins have long been applied.
	sendRequest(t, ws, protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: "ops-board"})
	require.Equal(t, "ok", awaitAck(t, ws).Status)

	app.notifier.NewBooking("p1", map[string]interface{}{"booking_id": "b1"})

	env := readEnvelope(t, ws)
	require.Equal(t, protocol.EventNewBooking, env.Type)
	require.Equal(t, broker.ProviderRoom("p1"), env.Room)
}

func TestLowercaseRoleTokenStillAutoJoins(t *testing.T) {
	app, srv := newTestApp(t)

	// The session layer controls the claim's casing, not us; a lowercase
	// role must land in the same room a canonical one does.
	ws := dialWS(t, app, srv, "c7", auth.Role("customer"))

	sendRequest(t, ws, protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: "ops-board"})
	require.Equal(t, "ok", awaitAck(t, ws).Status)

	app.router.Publish(broker.UserRoom("c7"), protocol.EventBookingStatusUpdated, nil)

	env := readEnvelope(t, ws)
	require.Equal(t, protocol.EventBookingStatusUpdated, env.Type)
	require.Equal(t, broker.UserRoom("c7"), env.Room)
}

func TestJoinChatRoomReplaysHistory(t *testing.T) {
	app, srv := newTestApp(t)
	ws := dialWS(t, app, srv, "u1", auth.RoleCustomer)

	sendRequest(t, ws, protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: "chat-c1"})
	require.Equal(t, "ok", awaitAck(t, ws).Status)

	env := readEnvelope(t, ws)
	require.Equal(t, protocol.TypeChatHistory, env.Type)
	history, err := protocol.DecodeChatHistory(env.Payload)
	require.NoError(t, err)
	require.Equal(t, "c1", history.ChatID)
	require.Empty(t, history.Messages)
}

func TestChatSendFlow(t *testing.T) {
	app, srv := newTestApp(t)

	sender := dialWS(t, app, srv, "u1", auth.RoleCustomer)
	receiver := dialWS(t, app, srv, "u2", auth.RoleCustomer)

	for _, ws := range []*websocket.Conn{sender, receiver} {
		sendRequest(t, ws, protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: "chat-c1"})
		require.Equal(t, "ok", awaitAck(t, ws).Status)
		require.Equal(t, protocol.TypeChatHistory, readEnvelope(t, ws).Type)
	}

	sendRequest(t, sender, protocol.TypeChatSend, protocol.ChatSendRequest{
		ChatID:     "c1",
		ReceiverID: "u2",
		Content:    "need a plumber thursday",
	})

	// The sender is a chat room member, so it gets the fan-out copy plus
	// the ack, in either order.
	var msgID string
	sawAck := false
	for i := 0; i < 2; i++ {
		env := readEnvelope(t, sender)
		switch env.Type {
		case protocol.TypeAck:
			ack, err := protocol.DecodeAck(env.Payload)
			require.NoError(t, err)
			require.Equal(t, "ok", ack.Status)
			sawAck = true
		case protocol.EventNewMessage:
			msg, err := protocol.DecodeChatMessage(env.Payload)
			require.NoError(t, err)
			msgID = msg.ID
		default:
			t.Fatalf("unexpected frame %s", env.Type)
		}
	}
	require.True(t, sawAck)
	require.NotEmpty(t, msgID)

	// The receiver is in both chat-c1 and its own user room; it sees the
	// event once per room.
	rooms := map[string]bool{}
	for i := 0; i < 2; i++ {
		env := readEnvelope(t, receiver)
		require.Equal(t, protocol.EventNewMessage, env.Type)
		rooms[env.Room] = true
	}
	require.True(t, rooms["chat-c1"])
	require.True(t, rooms["user-u2"])

	// The published message is independently fetchable from the store.
	stored, err := app.store.GetMessageByID(context.Background(), msgID)
	require.NoError(t, err)
	require.Equal(t, "need a plumber thursday", stored.Content)
	require.False(t, stored.Read)

	// Read receipts mutate the store without publishing anything.
	sendRequest(t, receiver, protocol.TypeChatRead, protocol.ChatReadRequest{ChatID: "c1"})
	require.Equal(t, "ok", awaitAck(t, receiver).Status)

	stored, err = app.store.GetMessageByID(context.Background(), msgID)
	require.NoError(t, err)
	require.True(t, stored.Read)
}

func TestDisconnectCleansUpRooms(t *testing.T) {
	app, srv := newTestApp(t)
	ws := dialWS(t, app, srv, "p1", auth.RoleProvider)

	sendRequest(t, ws, protocol.TypeJoinRoom, protocol.JoinRoomRequest{Room: "chat-c9"})
	require.Equal(t, "ok", awaitAck(t, ws).Status)
	require.Equal(t, 1, app.registry.RoomSize(broker.ProviderRoom("p1")))

	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return app.manager.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Zero(t, app.registry.RoomSize(broker.ProviderRoom("p1")))
	require.Zero(t, app.registry.RoomSize("chat-c9"))
}
