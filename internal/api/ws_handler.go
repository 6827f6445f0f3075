package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jfowler/remind-api/internal/api/shared"
	"github.com/jfowler/remind-api/internal/platform/ws"
	"github.com/jfowler/remind-api/internal/service"
	"github.com/jfowler/remind-api/internal/service/auth"
)

// closeCodeAuthFailed is the application close code sent when the token
// on a websocket handshake is missing, invalid, or expired.
const closeCodeAuthFailed = 4001

// WSHandler upgrades websocket connections and registers them for task
// notifications. Browsers cannot set an Authorization header on a
// websocket handshake, so the token travels in the query string.
type WSHandler struct {
	service    *service.TaskService
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWSHandler creates a WSHandler with the given dependencies.
func NewWSHandler(svc *service.TaskService, jwtService auth.JWTService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service:    svc,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Notification delivery is server-to-client only; clients on
			// any origin may subscribe with a valid token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

// Serve handles GET /ws?token=<jwt>. The upgrade always proceeds so the
// close code reaches the client; an invalid token is rejected with close
// code 4001 after the handshake.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn := ws.Wrap(wsConn)

	claims, err := h.jwtService.ValidateToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Info("websocket authentication failed",
			"error", err,
			"trace_id", shared.GetTraceID(r.Context()))
		_ = conn.Close(closeCodeAuthFailed, "authentication failed")
		return
	}

	h.service.Connect(claims.UserID, conn)
	defer h.service.Disconnect(conn)

	start := time.Now()
	readErr := conn.ReadLoop()
	h.logger.Info("websocket connection closed",
		"user_id", claims.UserID.String(),
		"duration", time.Since(start),
		"error", readErr)
	_ = conn.Close(websocket.CloseNormalClosure, "")
}
