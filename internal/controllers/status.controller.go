package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"nezhabot/internal/models"
)

// StatusCollector reports the relay's own health
type StatusCollector interface {
	Collect(ctx context.Context) (*models.RelayStatus, error)
}

// StatusController serves GET /status
type StatusController struct {
	status StatusCollector
}

// NewStatusController creates the status controller
func NewStatusController(status StatusCollector) *StatusController {
	return &StatusController{status: status}
}

// GetStatus returns token state and host resource usage
func (sc *StatusController) GetStatus(c *gin.Context) {
	status, err := sc.status.Collect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
