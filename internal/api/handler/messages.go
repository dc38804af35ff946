package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/models"
)

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// SendMessage persists a message from the caller. It does not relay it;
// clients forward the returned record over the socket.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request body", err))
		return
	}

	msg, err := h.Store.AppendMessage(c.Request.Context(), c.GetString(userIDKey), req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": msg.Record()})
}

// GetConversations lists the caller's conversation summaries.
func (h *Handler) GetConversations(c *gin.Context) {
	summaries, err := h.Store.ListConversationsFor(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(summaries), "data": summaries})
}

// GetConversation returns the messages between the caller and :userId in
// ascending order.
func (h *Handler) GetConversation(c *gin.Context) {
	msgs, err := h.Store.ListConversation(c.Request.Context(), c.GetString(userIDKey), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	records := lo.Map(msgs, func(m models.Message, _ int) models.MessageRecord { return m.Record() })
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(records), "data": records})
}

// MarkAsRead flags the messages :userId sent to the caller as read.
func (h *Handler) MarkAsRead(c *gin.Context) {
	updated, err := h.Store.MarkRead(c.Request.Context(), c.GetString(userIDKey), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Messages marked as read",
		"data":    gin.H{"updated": updated},
	})
}
