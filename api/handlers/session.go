// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/illumiterm/backend/internal/model"
	"github.com/illumiterm/backend/internal/repository"
	"github.com/illumiterm/backend/internal/session"
)

// SessionHandler handles HTTP requests for the terminal session. The live
// session record is never read directly; coordinator snapshots keep the
// handlers off the fields the lifecycle goroutines mutate.
type SessionHandler struct {
	coord *session.Coordinator
	repo  *repository.SessionRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(coord *session.Coordinator, repo *repository.SessionRepository) *SessionHandler {
	return &SessionHandler{
		coord: coord,
		repo:  repo,
	}
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID          string   `json:"id"`
	Command     string   `json:"command,omitempty"`
	Argv        []string `json:"argv"`
	Workdir     string   `json:"workdir,omitempty"`
	Title       string   `json:"title,omitempty"`
	Status      string   `json:"status"`
	ExitCode    *int     `json:"exitCode,omitempty"`
	PID         *int     `json:"pid,omitempty"`
	LogFilePath string   `json:"logFilePath,omitempty"`
	Duration    string   `json:"duration"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toSessionResponse converts a model.Session to SessionResponse.
func toSessionResponse(s *model.Session) *SessionResponse {
	return &SessionResponse{
		ID:          s.ID,
		Command:     s.Command,
		Argv:        s.Argv,
		Workdir:     s.Workdir,
		Title:       s.Title,
		Status:      string(s.Status),
		ExitCode:    s.ExitCode,
		PID:         s.PID,
		LogFilePath: s.LogFilePath,
		Duration:    formatDuration(s.Duration()),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return time.Duration(h*time.Hour + m*time.Minute + s*time.Second).String()
	}
	if m > 0 {
		return time.Duration(m*time.Minute + s*time.Second).String()
	}
	return time.Duration(s * time.Second).String()
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// Get handles GET /api/session - returns the current session.
func (h *SessionHandler) Get(c *gin.Context) {
	snap := h.coord.Snapshot()
	c.JSON(http.StatusOK, toSessionResponse(&snap))
}

// CloseResponse reports the outcome of a close request.
type CloseResponse struct {
	Closing bool   `json:"closing"`
	State   string `json:"state"`
}

// Close handles POST /api/session/close - requests the session to close.
// The response reports whether the close went through or was vetoed by the
// confirmation prompt.
func (h *SessionHandler) Close(c *gin.Context) {
	closing := h.coord.RequestClose()
	c.JSON(http.StatusOK, CloseResponse{
		Closing: closing,
		State:   h.coord.State().String(),
	})
}

// History handles GET /api/session/history - lists persisted sessions,
// newest first.
func (h *SessionHandler) History(c *gin.Context) {
	sessions, err := h.repo.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	response := make([]*SessionResponse, len(sessions))
	for i, sess := range sessions {
		response[i] = toSessionResponse(sess)
	}

	c.JSON(http.StatusOK, response)
}

// GetLogs handles GET /api/session/logs - downloads the session recording.
func (h *SessionHandler) GetLogs(c *gin.Context) {
	current := h.coord.Snapshot()
	sessionID := c.DefaultQuery("id", current.ID)

	sess := &current
	if sessionID != current.ID {
		var err error
		sess, err = h.repo.GetByID(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, model.ErrSessionNotFound) {
				sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
				return
			}
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
			return
		}
	}

	if sess.LogFilePath == "" {
		sendError(c, http.StatusNotFound, "LOG_NOT_FOUND", "Log file not found for session "+sessionID)
		return
	}

	c.Header("Content-Type", "application/x-asciicast")
	c.Header("Content-Disposition", "attachment; filename="+sess.ID+".cast")
	c.File(sess.LogFilePath)
}

// RegisterRoutes registers the session handler routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sess := rg.Group("/session")
	{
		sess.GET("", h.Get)
		sess.POST("/close", h.Close)
		sess.GET("/history", h.History)
		sess.GET("/logs", h.GetLogs)
	}
}
