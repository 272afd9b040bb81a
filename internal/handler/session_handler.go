package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/medfield/fieldtrack-go/internal/service"
	"github.com/medfield/fieldtrack-go/internal/session"
	"github.com/medfield/fieldtrack-go/pkg/response"
)

// SessionHandler handles HTTP requests for location sessions
type SessionHandler struct {
	tracker *service.TrackerService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(tracker *service.TrackerService) *SessionHandler {
	return &SessionHandler{tracker: tracker}
}

// CaptureRequest is the body of a location capture
type CaptureRequest struct {
	RepresentativeID string  `json:"representative_id" binding:"required"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Address          string  `json:"address"`
}

// Capture handles POST /api/v1/sessions/location
func (h *SessionHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.tracker.CaptureLocation(req.RepresentativeID, req.Latitude, req.Longitude, req.Address); err != nil {
		if errors.Is(err, session.ErrInvalidCoordinates) {
			response.BadRequest(c, "Coordinates out of valid range")
			return
		}
		response.InternalError(c, "Failed to capture location")
		return
	}

	response.Success(c, h.tracker.GetSessionStatus(req.RepresentativeID))
}

// Status handles GET /api/v1/sessions/:rep_id/status
func (h *SessionHandler) Status(c *gin.Context) {
	response.Success(c, h.tracker.GetSessionStatus(c.Param("rep_id")))
}

// LogEntry handles POST /api/v1/sessions/:rep_id/entries
func (h *SessionHandler) LogEntry(c *gin.Context) {
	repID := c.Param("rep_id")
	logged := h.tracker.LogEntry(repID)

	status := h.tracker.GetSessionStatus(repID)
	response.Success(c, gin.H{
		"logged":  logged,
		"reason":  entryRefusalReason(logged, status.Active),
		"session": status,
	})
}

// Clear handles DELETE /api/v1/sessions/:rep_id
func (h *SessionHandler) Clear(c *gin.Context) {
	h.tracker.ClearSession(c.Param("rep_id"))
	response.Success(c, gin.H{"cleared": true})
}

// entryRefusalReason names the condition behind a refused entry so the bot
// layer can phrase its prompt; empty when the entry was accepted
func entryRefusalReason(logged, active bool) string {
	switch {
	case logged:
		return ""
	case !active:
		return "session_inactive"
	default:
		return "quota_exhausted"
	}
}
