package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/auth"
	"skillnexus/backend/internal/chathub"
	"skillnexus/backend/internal/storage"
)

// Handler holds the dependencies of the HTTP and WebSocket endpoints.
type Handler struct {
	Hub    *chathub.ManagerService
	Store  storage.Storage
	Tokens *auth.Issuer

	upgrader   websocket.Upgrader
	sendBuffer int
	log        *slog.Logger
}

// Options tunes the WebSocket side of the handler.
type Options struct {
	AllowedOrigin string
	SendBuffer    int
}

func NewHandler(hub *chathub.ManagerService, store storage.Storage, tokens *auth.Issuer, opts Options, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &Handler{
		Hub:    hub,
		Store:  store,
		Tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigin),
		},
		sendBuffer: opts.SendBuffer,
		log:        log,
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), a wildcard, or the configured origin.
func originChecker(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed == "*" || origin == allowed
	}
}

func statusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope and records err on the context
// for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"success": false,
		"message": apperrors.Message(err),
	})
}
