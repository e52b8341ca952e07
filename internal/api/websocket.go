package api

import (
	"log"
	"net/http"
	"time"

	"pong-arena/internal/auth"
	"pong-arena/internal/protocol"
	"pong-arena/internal/registry"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// maxMessageSize bounds a single inbound frame; game messages are tiny
	maxMessageSize = 4096

	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if IsAllowedOrigin(origin) {
			return true
		}

		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// WSHandler upgrades game connections, authenticates them, and bridges
// the socket to the connection registry: one writer goroutine drains
// the conn's outbox, the read loop feeds the message router.
type WSHandler struct {
	reg       *registry.Registry
	authz     *auth.Authenticator
	wsLimiter *WebSocketRateLimiter
}

// NewWSHandler creates the WebSocket endpoint handler.
func NewWSHandler(reg *registry.Registry, authz *auth.Authenticator) *WSHandler {
	return &WSHandler{
		reg:       reg,
		authz:     authz,
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// ServeHTTP handles one WebSocket session end to end.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.reg.ConnCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	// Authenticate after the upgrade so the rejection can carry a
	// dedicated close code instead of an opaque HTTP status.
	identity, err := h.authz.Verify(r.URL.Query().Get("token"))
	if err != nil {
		code := protocol.CloseInvalidToken
		reason := "Invalid token"
		if err == auth.ErrNoToken {
			code = protocol.CloseNoToken
			reason = "No token provided"
		}
		RecordConnectionRejected("invalid_token")
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
		ws.Close()
		h.wsLimiter.Release(ip)
		return
	}

	conn := h.reg.Register(identity.UserID, identity.Username)
	UpdateWSConnections(h.reg.ConnCount())

	go h.writeLoop(ws, conn)
	h.readLoop(ws, conn, ip)
}

// readLoop pumps inbound frames into the registry's router until the
// socket dies, then tears the connection down.
func (h *WSHandler) readLoop(ws *websocket.Conn, conn *registry.Conn, ip string) {
	defer func() {
		h.reg.Deregister(conn)
		h.wsLimiter.Release(ip)
		ws.Close()
		UpdateWSConnections(h.reg.ConnCount())
	}()

	ws.SetReadLimit(maxMessageSize)

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		IncrementWSMessagesReceived()
		h.reg.RouteInput(conn, message)
	}
}

// writeLoop drains the conn's outbox onto the socket. It exits when the
// registry closes the conn or a write fails; closing the socket also
// unblocks the read loop.
func (h *WSHandler) writeLoop(ws *websocket.Conn, conn *registry.Conn) {
	defer ws.Close()

	for {
		select {
		case msg := <-conn.Outbox():
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			IncrementWSMessagesSent()
		case <-conn.Done():
			// Flush whatever is still queued before closing.
			for {
				select {
				case msg := <-conn.Outbox():
					ws.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeTimeout))
					return
				}
			}
		}
	}
}
