package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/servora/realtime/internal/auth"
	"github.com/servora/realtime/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The marketplace fronts this with its own origin policy.
	},
}

// handleWebSocket is the single ingress: verify identity, upgrade, admit.
// An invalid or missing token is rejected before any Connection exists, so
// unauthenticated sockets never reach the registry.
func (a *App) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ParseToken(a.cfg.JWT, token)
	if err != nil {
		a.log.Warnf("rejected connection from %s: %v", r.RemoteAddr, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Errorf("upgrade: %v", err)
		return
	}

	conn := a.manager.Accept(ws, claims)
	a.resolver.Apply(conn)

	go conn.WritePump(a.cfg.WriteTimeout)

	ctx := r.Context()
	conn.ReadPump(ctx, func(env protocol.Envelope) {
		a.routeRequest(ctx, conn, env)
	})

	a.manager.Close(conn.ID())
}

// requestToken pulls the identity token from the Authorization header or,
// for browser websocket clients that cannot set headers, the query string.
func requestToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
