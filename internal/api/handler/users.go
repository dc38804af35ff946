package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC(),
	})
}

// GetUser returns the display fields of a user.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Store.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user.Ref()})
}

// OnlineUsers returns the identities present on this process.
func (h *Handler) OnlineUsers(c *gin.Context) {
	ids, err := h.Hub.OnlineUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(ids), "data": ids})
}
