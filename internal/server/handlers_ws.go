package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // feed is public, dashboard and mobile connect cross-origin
	},
}

// handleWebSocket upgrades the connection and parks it in the hub. The read
// pump discards inbound frames (the feed is one-way) but keeps the connection
// alive for pong replies; a read error is the disconnect signal.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("Rejected WebSocket connection", "ip", ip, "reason", reason)
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "connection limit exceeded",
		})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.Warn("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Error("Failed to register WebSocket connection", "ip", ip, "error", err)
		_ = conn.Close()
		return nil
	}

	metrics.WebSocketConnectionsTotal.Inc()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)
	return nil
}
