package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ozzus/checkplugin/internal/domain"
)

type relayService interface {
	HealthCheck(ctx context.Context) error
	GetStatus() map[string]interface{}
}

type HealthController struct {
	relay   relayService
	relayID string
}

func NewHealthController(relay relayService, relayID string) *HealthController {
	return &HealthController{
		relay:   relay,
		relayID: relayID,
	}
}

func (h *HealthController) Health(c *gin.Context) {
	if err := h.relay.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, domain.HealthResponse{
			Status:    domain.HealthStatusUnhealthy,
			Timestamp: time.Now(),
			RelayID:   h.relayID,
			Message:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, domain.HealthResponse{
		Status:    domain.HealthStatusHealthy,
		Timestamp: time.Now(),
		RelayID:   h.relayID,
		Message:   "Relay is running",
	})
}

func (h *HealthController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.GetStatus())
}

// Ready reports whether the relay is consuming submissions.
func (h *HealthController) Ready(c *gin.Context) {
	if err := h.relay.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"relay":     h.relayID,
			"message":   err.Error(),
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"relay":     h.relayID,
		"message":   "Relay is ready to write submissions",
		"timestamp": time.Now(),
	})
}
