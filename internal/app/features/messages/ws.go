// internal/app/features/messages/ws.go
package messages

import (
	"net/http"
	"time"

	"github.com/dalemusser/shelterhub/internal/app/system/authz"
	"github.com/dalemusser/shelterhub/internal/app/system/httpx"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

// ServeWS upgrades GET /ws/chat to a WebSocket for the authenticated user.
// The token middleware must run first (it accepts ?token= on upgrades).
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := authz.UserID(r)
	if user.IsZero() {
		httpx.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(user)
	h.Hub.register(c)
	h.Log.Debug("chat connected", zap.String("user", user.Hex()))

	go h.writePump(conn, c)
	h.readPump(r, conn, c)
}

// readPump runs on the request goroutine until the socket closes.
func (h *Handler) readPump(r *http.Request, conn *websocket.Conn, c *client) {
	defer func() {
		h.Hub.unregister(c)
		conn.Close()
		h.Log.Debug("chat disconnected", zap.String("user", c.user.Hex()))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("chat read failed", zap.Error(err))
			}
			return
		}
		h.Hub.handle(r.Context(), c, raw)
	}
}

// writePump owns all writes to conn. It exits when the hub closes c.send.
func (h *Handler) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
