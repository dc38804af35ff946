package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"skillnexus/backend/internal/apperrors"
)

const userIDKey = "user_id"

// AuthMiddleware resolves the caller from a Bearer token, or from the
// token query parameter that browsers use on the WebSocket URL, and stores
// the identity under "user_id".
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			respondError(c, apperrors.NewUnauthorizedError("Authorization token missing", nil))
			return
		}

		userID, err := h.Tokens.Validate(tokenString)
		if err != nil {
			respondError(c, apperrors.NewUnauthorizedError("Invalid token or expired", err))
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}
