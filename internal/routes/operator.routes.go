package routes

import (
	"github.com/gin-gonic/gin"

	"nezhabot/internal/controllers"
	"nezhabot/internal/middleware"
)

// RegisterOperatorRoutes mounts the password protected maintenance routes
func RegisterOperatorRoutes(r *gin.Engine, password string, oc *controllers.OperatorController, sc *controllers.StatusController, sl *middleware.SecurityLogger) {
	operator := r.Group("/",
		middleware.RateLimitMiddleware(middleware.NewAuthRateLimiter()),
		middleware.BasicAuthMiddleware(password, sl),
		logOperatorAction(sl),
	)
	{
		operator.Any("/register", oc.Register)
		operator.Any("/unregister", oc.Unregister)
		operator.Any("/refresh", oc.Refresh)
		operator.GET("/status", sc.GetStatus)
	}
}

func logOperatorAction(sl *middleware.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sl.LogOperatorAction(c.ClientIP(), c.Request.Method+" "+c.Request.URL.Path)
		c.Next()
	}
}
