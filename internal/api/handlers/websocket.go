package handlers

import (
	"safespace-chat/internal/websocket"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
}

func NewWSHandler(hub *websocket.Hub, upgrader *gorillaws.Upgrader) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader}
}

// HandleWebSocket godoc
// @Summary WebSocket connection
// @Description Upgrade to an anonymous chat connection. No identity is required; participants name themselves with the join event.
// @Tags websocket
// @Success 101 "Switching Protocols - WebSocket connection established"
// @Failure 400 {object} map[string]interface{} "Bad request - not a WebSocket handshake"
// @Failure 429 {object} map[string]interface{} "Too many connection attempts"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	websocket.ServeWS(h.hub, h.upgrader, c.Writer, c.Request)
}
