package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"safespace-chat/internal/chat"
	"safespace-chat/internal/websocket"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether an optional collaborator is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type HealthHandler struct {
	hub    *websocket.Hub
	rooms  *chat.RoomRegistry
	checks map[string]Pinger
}

// NewHealthHandler reports on the chat engine plus each named collaborator.
// A nil Pinger marks the collaborator as disabled.
func NewHealthHandler(hub *websocket.Hub, rooms *chat.RoomRegistry, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{hub: hub, rooms: rooms, checks: checks}
}

// Health godoc
// @Summary Health check
// @Description Chat engine status plus each optional collaborator (up, down or disabled)
// @Tags monitoring
// @Produce json
// @Success 200 {object} map[string]interface{} "healthy or degraded"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	services := gin.H{
		"websocket": gin.H{
			"status":      "active",
			"connections": h.hub.ClientCount(),
		},
		"anonymousChat": gin.H{
			"status": "active",
			"rooms":  h.rooms.RoomCount(),
		},
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	for _, name := range names {
		pinger := h.checks[name]
		switch {
		case pinger == nil:
			services[name] = "disabled"
		case pinger.Ping(ctx) != nil:
			services[name] = "down"
			status = "degraded"
		default:
			services[name] = "up"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"services":  services,
	})
}
