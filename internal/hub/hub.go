// Package hub fans session events out to the browser tabs watching a session.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrBufferFull is returned when a connection cannot keep up.
var ErrBufferFull = errors.New("send buffer full")

const sendBufferSize = 64

// Connection is one websocket watching a session.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte

	mu sync.Mutex
}

// Hub tracks connections by session and delivers broadcasts to them.
type Hub struct {
	// connection ID -> connection
	connections map[string]*Connection
	// session ID -> connection IDs
	sessions map[string]map[string]struct{}

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan sessionMessage
	done       chan struct{}

	mu sync.RWMutex
}

type sessionMessage struct {
	sessionID string
	data      []byte
}

// New creates a hub. Call Run to start delivering.
func New() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]struct{}),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan sessionMessage, 256),
		done:        make(chan struct{}),
	}
}

// Run delivers registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if h.sessions[conn.SessionID] == nil {
				h.sessions[conn.SessionID] = make(map[string]struct{})
			}
			h.sessions[conn.SessionID][conn.ID] = struct{}{}
			h.mu.Unlock()
			slog.Debug("connection registered", "connectionId", conn.ID, "sessionId", conn.SessionID)

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for connID := range h.sessions[msg.sessionID] {
				conn := h.connections[connID]
				select {
				case conn.Send <- msg.data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()

			for _, conn := range slow {
				slog.Warn("connection buffer full, closing", "connectionId", conn.ID)
				h.remove(conn)
			}
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if ids := h.sessions[conn.SessionID]; ids != nil {
		delete(ids, conn.ID)
		if len(ids) == 0 {
			delete(h.sessions, conn.SessionID)
		}
	}
	close(conn.Send)
	slog.Debug("connection unregistered", "connectionId", conn.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.connections {
		close(conn.Send)
		delete(h.connections, id)
	}
	h.sessions = make(map[string]map[string]struct{})
}

// NewConnection wraps ws for the given session. It is not yet registered.
func (h *Hub) NewConnection(ws *websocket.Conn, sessionID string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, sendBufferSize),
	}
}

// Register starts delivering broadcasts to conn. After the hub has stopped
// the send channel is closed right away.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister stops delivering to conn and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastJSON sends v to every connection of the session.
func (h *Hub) BroadcastJSON(sessionID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- sessionMessage{sessionID: sessionID, data: data}:
		return nil
	default:
		return ErrBufferFull
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasActiveConnections reports whether anyone watches the session.
func (h *Hub) HasActiveConnections(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID]) > 0
}

// WriteMessage writes to the socket with a deadline.
func (c *Connection) WriteMessage(messageType int, data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
