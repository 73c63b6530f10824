package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// maxMessageSize allows full HTML documents and base64 image payloads inline.
const maxMessageSize = 50 * 1024 * 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Controls and displays connect from LAN origins
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)

	// Attach blocks until the hub owns the connection; the read pump must not
	// start before the writer has configured the pong handler.
	if err := s.hub.Attach(conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to attach connection: %w", err)
	}

	// Read pump blocks until the connection closes. Every frame goes to the
	// hub actor; transport errors end the pump, not the server.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.hub.HandleMessage(conn, data)
	}

	s.hub.Detach(conn)

	return nil //nolint:nilerr // ReadMessage err is block-scoped; outer err is nil
}
