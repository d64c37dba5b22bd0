package handlers

import (
	"net/http"
	"time"

	"safespace-chat/internal/chat"
	"safespace-chat/internal/websocket"
	"safespace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

// RoomHandler serves read-only monitoring snapshots. Payloads carry counts
// and recent messages only, never connection ids.
type RoomHandler struct {
	rooms *chat.RoomRegistry
	hub   *websocket.Hub
}

func NewRoomHandler(rooms *chat.RoomRegistry, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{rooms: rooms, hub: hub}
}

// ListRooms godoc
// @Summary List rooms
// @Description Every room with its member and message counts, sorted by id
// @Tags rooms
// @Produce json
// @Success 200 {object} map[string]interface{} "Rooms and total"
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms := h.rooms.Rooms()
	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"total": len(rooms),
	})
}

// GetRoom godoc
// @Summary Get room stats
// @Description One room's counts and its last ten messages
// @Tags rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} chat.RoomStats "Room stats"
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	stats, ok := h.rooms.Stats(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusNotFound, response.ErrCodeRoomNotFound)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMetrics godoc
// @Summary Hub metrics
// @Description Aggregated fan-out, connection and crisis alert counters plus the most recent samples
// @Tags monitoring
// @Produce json
// @Success 200 {object} map[string]interface{} "Metrics"
// @Router /metrics [get]
func (h *RoomHandler) GetMetrics(c *gin.Context) {
	metrics := h.hub.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"connections": h.hub.ClientCount(),
		"rooms":       h.rooms.RoomCount(),
		"broadcast":   metrics.GetAggregatedMetrics(),
		"history":     metrics.GetMetricsHistory(),
		"timestamp":   time.Now(),
	})
}
