package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/medfield/fieldtrack-go/internal/models"
	"github.com/medfield/fieldtrack-go/internal/service"
	"github.com/medfield/fieldtrack-go/internal/session"
	"github.com/medfield/fieldtrack-go/pkg/response"
)

// VisitHandler handles HTTP requests for visit recording
type VisitHandler struct {
	tracker *service.TrackerService
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(tracker *service.TrackerService) *VisitHandler {
	return &VisitHandler{tracker: tracker}
}

// Record handles POST /api/v1/visits
func (h *VisitHandler) Record(c *gin.Context) {
	var visit models.VisitLocation
	if err := c.ShouldBindJSON(&visit); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if visit.RepresentativeID == "" {
		response.BadRequest(c, "representative_id is required")
		return
	}

	recorded, err := h.tracker.RecordVisit(&visit)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCoordinates):
			response.BadRequest(c, "Coordinates out of valid range")
		case errors.Is(err, service.ErrInvalidVisitTime):
			response.BadRequest(c, "visit_time must be RFC3339")
		default:
			response.InternalError(c, "Failed to store visit")
		}
		return
	}

	status := h.tracker.GetSessionStatus(visit.RepresentativeID)
	response.Success(c, gin.H{
		"recorded": recorded,
		"reason":   entryRefusalReason(recorded, status.Active),
		"visit_id": visit.VisitID,
		"session":  status,
	})
}
