package websocket

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/cleanquest/cleanquest/internal/auth"
)

// Handler upgrades HTTP requests to WebSocket connections. It runs behind
// the auth middleware, so an authenticated user is always present.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandler creates a WebSocket upgrade handler.
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == 0 {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, h.logger)
	h.hub.Register(client)
	h.logger.Debug("websocket client connected", "user_id", userID)

	go client.writePump(r.Context())
	client.readPump(r.Context())
}
