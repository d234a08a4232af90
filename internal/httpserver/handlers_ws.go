package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/drumline-app/drumline/internal/errors"
	"github.com/drumline-app/drumline/internal/identity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients authenticate with the session cookie; the origin
		// itself is not part of the trust decision.
		return true
	},
}

// handleWebSocket registers an authenticated connection and runs its read
// loop. The authenticate middleware has already resolved the security
// context; failure there rejects the handshake before any upgrade.
func (s *Server) handleWebSocket(c echo.Context) error {
	sc := identity.FromContext(c.Request().Context())
	if sc == nil {
		return apperrors.Unauthenticated("no verified principal")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return nil
	}

	connectionID, err := s.hub.Register(sc, conn)
	if err != nil {
		// The hub closed the connection; tell the client why before that
		// close lands, best effort.
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "registry full"))
		return nil
	}

	profile, ok := s.hub.Profile(connectionID)
	if !ok {
		s.hub.Unregister(connectionID)
		return nil
	}

	// Read pump. Pongs are consumed by the hub's pong handler; text frames
	// are client-originated relay events.
	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		s.dispatcher.Relay(profile, raw)
	}

	s.hub.Unregister(connectionID)
	return nil
}
