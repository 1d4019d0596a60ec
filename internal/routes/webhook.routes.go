package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nezhabot/internal/controllers"
	"nezhabot/internal/middleware"
)

// RegisterWebhookRoutes mounts the Telegram webhook at path
func RegisterWebhookRoutes(r *gin.Engine, path, secret string, wc *controllers.WebhookController, sl *middleware.SecurityLogger) {
	r.POST(path, middleware.WebhookSecretMiddleware(secret, sl), wc.HandleUpdate)
}

// RegisterFallback answers every unknown route with 404
func RegisterFallback(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Wrong route")
	})
}
