package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout = 10 * time.Second
	sendBuffer   = 16
)

// Client wraps a single WebSocket connection owned by one user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a client for an accepted connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID int64, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// writePump drains the send channel onto the connection. It exits when the
// hub closes the channel or a write fails.
func (c *Client) writePump(ctx context.Context) {
	for data := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.logger.Debug("websocket write failed", "user_id", c.userID, "error", err)
			return
		}
	}
}

// readPump discards inbound frames. Clients are read-only consumers; the
// read loop exists to detect disconnects and answer pings.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}
