package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/illumiterm/backend/internal/session"
	"github.com/illumiterm/backend/internal/ws"
)

// WebSocketHandler attaches frontends to the terminal session.
type WebSocketHandler struct {
	coord     *session.Coordinator
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(coord *session.Coordinator, wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		coord:     coord,
		wsHandler: wsHandler,
	}
}

// Attach handles WS /api/session/attach - attaches to the session via
// WebSocket.
func (h *WebSocketHandler) Attach(c *gin.Context) {
	if h.coord.State() != session.StateRunning {
		sendError(c, http.StatusBadRequest, "SESSION_NOT_RUNNING", "Session is not running")
		return
	}

	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// Upgrade failures already wrote a response
		return
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/session/attach", h.Attach)
}
