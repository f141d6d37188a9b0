package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/services"
	"mmoboard_backend/pkg/contextkeys"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens via the JWT middleware before the upgrade.
		return true
	},
}

type Handler struct {
	manager       *Manager
	notifications services.NotificationService
}

func NewHandler(manager *Manager, notifications services.NotificationService) *Handler {
	return &Handler{manager: manager, notifications: notifications}
}

// ServeWS upgrades an authenticated request into a notification push
// connection.
func (h *Handler) ServeWS(c *gin.Context) {
	userID, exists := c.Get(string(contextkeys.UserIDContextKey))
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		UserID:        userID.(string),
		conn:          conn,
		send:          make(chan interface{}, 64),
		manager:       h.manager,
		notifications: h.notifications,
	}

	h.manager.register <- client

	go client.readPump()
	go client.writePump()
}
