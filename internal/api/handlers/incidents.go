package handlers

import (
	"context"
	"net/http"
	"strconv"

	"safespace-chat/internal/models"
	"safespace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultIncidentLimit = 20
	maxIncidentLimit     = 100
)

// IncidentStore reads persisted crisis incidents.
type IncidentStore interface {
	ListRecent(ctx context.Context, limit int) ([]*models.CrisisIncident, error)
	CountByRoom(ctx context.Context, room string) (int64, error)
}

type IncidentHandler struct {
	store IncidentStore
}

func NewIncidentHandler(store IncidentStore) *IncidentHandler {
	return &IncidentHandler{store: store}
}

// ListIncidents godoc
// @Summary List crisis incidents
// @Description Most recent stored crisis incidents, newest first. Only the alert preview is stored.
// @Tags monitoring
// @Produce json
// @Param limit query int false "Maximum incidents to return (1-100, default 20)"
// @Param room query string false "Also report the stored incident count for this room"
// @Success 200 {object} map[string]interface{} "Incidents"
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Failure 503 {object} map[string]interface{} "Incident store unavailable"
// @Router /crisis/incidents [get]
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	limit := defaultIncidentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(c, http.StatusBadRequest, response.ErrCodeInvalidParams)
			return
		}
		limit = min(n, maxIncidentLimit)
	}

	ctx := c.Request.Context()
	incidents, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable)
		return
	}

	body := gin.H{
		"incidents": incidents,
		"total":     len(incidents),
	}
	if room := c.Query("room"); room != "" {
		count, err := h.store.CountByRoom(ctx, room)
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable)
			return
		}
		body["room"] = room
		body["roomTotal"] = count
	}
	c.JSON(http.StatusOK, body)
}
