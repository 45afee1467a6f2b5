package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/hub"
)

// helloMessage is the first frame written to a new socket.
type helloMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id"`
}

// handleWebSocket upgrades the request and attaches the socket to the session.
func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		slog.Warn("failed to upgrade websocket", "error", err)
		return nil
	}
	ws.SetReadLimit(s.opts.MaxMessageSize)

	conn := s.hub.NewConnection(ws, s.svc.Store().SessionID())
	s.hub.Register(conn)

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

// readPump keeps the read deadline fresh and detects closed sockets. Clients
// do not send commands over the socket.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed", "connectionId", conn.ID, "error", err)
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}
}

// writePump sends the hello frame, then session events and pings.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	hello, _ := json.Marshal(helloMessage{
		Type:      "hello",
		Ts:        time.Now().UnixMilli(),
		SessionID: conn.SessionID,
	})
	if err := conn.WriteMessage(websocket.TextMessage, hello, s.opts.WriteTimeout); err != nil {
		return
	}

	for {
		select {
		case message, ok := <-conn.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{}, s.opts.WriteTimeout)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message, s.opts.WriteTimeout); err != nil {
				slog.Debug("failed to write websocket message", "connectionId", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil, s.opts.WriteTimeout); err != nil {
				return
			}
		}
	}
}
