package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/infrastructure/storage/postgres"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolStatter is implemented by stores backed by a connection pool.
type PoolStatter interface {
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Live reports that the process is up.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether the record store can be reached.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	resp := gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	}
	if ps, ok := h.store.(PoolStatter); ok {
		resp["pool"] = ps.Stats()
	}
	c.JSON(http.StatusOK, resp)
}
