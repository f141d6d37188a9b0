package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// IncomingMessage is the client-to-server envelope.
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	UserID string
	conn   *websocket.Conn
	send   chan interface{}

	manager       *Manager
	notifications services.NotificationService
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err.Error())
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Debug("ws message unparseable", "user_id", c.UserID, "error", err.Error())
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	switch msg.Action {

	case "mark_as_read":
		var payload struct {
			NotificationID string `json:"notification_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.NotificationID == "" {
			return
		}
		if err := c.notifications.MarkAsRead(c.UserID, payload.NotificationID); err != nil {
			logger.Debug("ws mark_as_read failed",
				"user_id", c.UserID, "notification_id", payload.NotificationID, "error", err.Error())
			return
		}
		c.pushUnreadCount()

	case "mark_all_read":
		if _, err := c.notifications.MarkAllAsRead(c.UserID); err != nil {
			logger.Debug("ws mark_all_read failed", "user_id", c.UserID, "error", err.Error())
			return
		}
		c.pushUnreadCount()

	default:
		logger.Debug("ws unhandled action", "user_id", c.UserID, "action", msg.Action)
	}
}

func (c *Client) pushUnreadCount() {
	count, err := c.notifications.UnreadCount(c.UserID)
	if err != nil {
		return
	}
	c.manager.PushToUser(c.UserID, Event{
		Type:    "unread_count",
		Payload: map[string]int64{"count": count},
	})
}
