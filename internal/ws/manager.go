package ws

import (
	"sync"

	"mmoboard_backend/internal/logger"
)

// Event is the envelope every websocket push goes out in.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Manager is the notification push hub. One client per user; a reconnect
// replaces the previous connection.
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if old, ok := m.clients[client.UserID]; ok {
				close(old.send)
			}
			m.clients[client.UserID] = client
			total := len(m.clients)
			m.mu.Unlock()
			logger.Debug("ws client registered", "user_id", client.UserID, "total", total)

		case client := <-m.unregister:
			m.mu.Lock()
			if current, ok := m.clients[client.UserID]; ok && current == client {
				close(client.send)
				delete(m.clients, client.UserID)
			}
			total := len(m.clients)
			m.mu.Unlock()
			logger.Debug("ws client unregistered", "user_id", client.UserID, "total", total)
		}
	}
}

// PushToUser delivers an event to the user's connection if one is open.
// A user without a connection is silently skipped; the notification row is
// the durable record.
func (m *Manager) PushToUser(userID string, event interface{}) {
	m.mu.RLock()
	client, ok := m.clients[userID]
	if !ok {
		m.mu.RUnlock()
		return
	}

	// The read lock is held across the send: the register path closes a
	// replaced connection's channel under the write lock, so releasing
	// early would let that close land mid-send.
	var full bool
	select {
	case client.send <- event:
	default:
		full = true
	}
	m.mu.RUnlock()

	if full {
		// Slow consumer; drop the connection, not the goroutine.
		logger.Warn("ws send buffer full, disconnecting", "user_id", userID)
		go func() { m.unregister <- client }()
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
