package handler

import (
	"github.com/gin-gonic/gin"

	"skillnexus/backend/internal/chathub"
)

// ServeWebSocket upgrades an authenticated request and hands the
// connection to the hub, which joins it to the presence directory.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := c.GetString(userIDKey)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := chathub.NewWebSocketClient(userID, conn, h.Hub, h.sendBuffer, h.log)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
