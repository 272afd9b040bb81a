package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/medfield/fieldtrack-go/internal/service"
	"github.com/medfield/fieldtrack-go/pkg/response"
)

// AnalyticsHandler handles HTTP requests for location analytics
type AnalyticsHandler struct {
	tracker *service.TrackerService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(tracker *service.TrackerService) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker}
}

// Analytics handles GET /api/v1/analytics/:rep_id
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	analytics, err := h.tracker.GetLocationAnalytics(c.Param("rep_id"))
	if err != nil {
		response.InternalError(c, "Failed to get location analytics")
		return
	}

	response.Success(c, analytics)
}
