package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medfield/fieldtrack-go/internal/service"
	"github.com/medfield/fieldtrack-go/pkg/response"
)

// RouteHandler handles HTTP requests for route blueprints and history
type RouteHandler struct {
	tracker *service.TrackerService
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(tracker *service.TrackerService) *RouteHandler {
	return &RouteHandler{tracker: tracker}
}

// Blueprint handles GET /api/v1/routes/:rep_id?date=YYYY-MM-DD
func (h *RouteHandler) Blueprint(c *gin.Context) {
	repID := c.Param("rep_id")
	date := c.Query("date")

	blueprint, err := h.tracker.GetRouteBlueprint(repID, date)
	if err != nil {
		response.InternalError(c, "Failed to get route blueprint")
		return
	}
	if blueprint == nil {
		response.NotFound(c, "No visits recorded for this day")
		return
	}

	response.Success(c, blueprint)
}

// History handles GET /api/v1/routes/:rep_id/history?days=N
func (h *RouteHandler) History(c *gin.Context) {
	repID := c.Param("rep_id")

	days := 7
	if d := c.Query("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 || n > 90 {
			response.BadRequest(c, "days must be between 1 and 90")
			return
		}
		days = n
	}

	history, err := h.tracker.GetLocationHistory(repID, days)
	if err != nil {
		response.InternalError(c, "Failed to get location history")
		return
	}

	response.Success(c, gin.H{
		"representative_id": repID,
		"days":              days,
		"history":           history,
	})
}
