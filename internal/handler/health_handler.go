package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type storagePinger interface {
	Ping(ctx context.Context) bool
}

// HealthHandler reports process and storage health.
type HealthHandler struct {
	storage storagePinger
}

// NewHealthHandler creates a new handler.
func NewHealthHandler(storage storagePinger) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// Health returns 200 when storage is reachable and 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	reachable := h.storage != nil && h.storage.Ping(c.Request.Context())
	if !reachable {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "storage": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "storage": true})
}
