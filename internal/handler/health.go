package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks remote API reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	remote Pinger
}

func NewHandler(remote Pinger) *Handler {
	return &Handler{remote: remote}
}

// LivenessCheck reports process health.
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessCheck reports whether the remote API is reachable. The tier is
// pure glue; without the remote it cannot serve anything.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.remote.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
