package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"skillnexus/backend/internal/logger"
)

// NewRouter wires every route of the messaging server.
func NewRouter(h *Handler, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authed := api.Group("", h.AuthMiddleware())
	{
		authed.GET("/users/online", h.OnlineUsers)
		authed.GET("/users/:id", h.GetUser)

		authed.POST("/messages", h.SendMessage)
		authed.GET("/messages/conversations", h.GetConversations)
		authed.GET("/messages/:userId", h.GetConversation)
		authed.PUT("/messages/read/:userId", h.MarkAsRead)
	}

	r.GET("/ws", h.AuthMiddleware(), h.ServeWebSocket)
	return r
}
