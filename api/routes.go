package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/auth-service/auth"
	"github.com/skillsenselab/auth-service/observability"
)

// RegisterRoutes mounts the auth endpoints and the health probe on the
// engine. Only /auth/verify sits behind the authorization gate; the other
// auth endpoints must stay reachable without a token. The health handler
// probes the given checkers (user store, secret cache) on every request and
// answers 503 when any component is down.
func RegisterRoutes(r *gin.Engine, h *Handler, gate *auth.Gate, serviceName, version string, checkers ...observability.HealthChecker) {
	grp := r.Group("/auth")
	{
		grp.POST("/register", h.Register)
		grp.POST("/login", h.Login)
		grp.POST("/verify", gate.Middleware(), h.Verify)
		grp.POST("/forgot-password", h.ForgotPassword)
		grp.POST("/reset-password", h.ResetPassword)
	}

	r.GET("/health", func(c *gin.Context) {
		health := observability.CheckAll(c.Request.Context(), serviceName, version, checkers...)
		status := http.StatusOK
		if health.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})
}
