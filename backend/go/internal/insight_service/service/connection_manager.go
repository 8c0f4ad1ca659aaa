package service

import (
	"sync"

	"github.com/gorilla/websocket"
)

// ConnectionManager tracks one WebSocket connection per user for pushing
// job progress updates.
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	mu          sync.RWMutex
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
	}
}

// Add registers a new connection for a user. An existing connection for the
// same user is closed and replaced.
func (m *ConnectionManager) Add(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connections[userID]; ok {
		old.Close()
	}
	m.connections[userID] = conn
}

// Remove removes and closes the connection for a user.
func (m *ConnectionManager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, ok := m.connections[userID]; ok {
		conn.Close()
		delete(m.connections, userID)
	}
}

// SendMessage sends a text message to a specific user. It reports whether
// the message was delivered.
func (m *ConnectionManager) SendMessage(userID string, message []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.connections[userID]
	if !ok {
		return false
	}
	return conn.WriteMessage(websocket.TextMessage, message) == nil
}
