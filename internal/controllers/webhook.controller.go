package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tgmodels "github.com/go-telegram/bot/models"
)

// UpdateHandler processes one Telegram update
type UpdateHandler interface {
	OnUpdate(ctx context.Context, update *tgmodels.Update) (bool, error)
}

// WebhookController receives Telegram webhook calls
type WebhookController struct {
	bot UpdateHandler
}

// NewWebhookController creates the webhook controller
func NewWebhookController(bot UpdateHandler) *WebhookController {
	return &WebhookController{bot: bot}
}

// HandleUpdate decodes an update and dispatches it. Telegram retries on any
// non-2xx answer, so handler failures are logged and still answered 200.
func (wc *WebhookController) HandleUpdate(c *gin.Context) {
	var update tgmodels.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("[TELEGRAM] Malformed update from %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	// replies are still sent when Telegram hangs up first
	ctx := context.WithoutCancel(c.Request.Context())

	handled, err := wc.bot.OnUpdate(ctx, &update)
	if err != nil {
		log.Printf("[TELEGRAM] Update %d failed: %v", update.ID, err)
	}
	if !handled {
		c.String(http.StatusOK, "No response")
		return
	}
	c.String(http.StatusOK, "OK")
}
