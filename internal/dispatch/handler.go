package dispatch

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alttch/roboger/internal/logger"
)

type Handler struct {
	service Service
	logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the public push surface. /api/push is an alias kept
// for older clients.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/push", h.Push)
	r.POST("/api/push", h.Push)
}

func (h *Handler) Push(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid payload"})
		return
	}

	result := h.service.Push(c.Request.Context(), req)

	switch result {
	case Accepted:
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
	case NotFound:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "address not found"})
	case Disabled:
		c.JSON(http.StatusNotAcceptable, gin.H{"ok": false, "error": "address disabled"})
	case Overlimit:
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "address quota exceeded"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "temporarily unavailable"})
	}
}
