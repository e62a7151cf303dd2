package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/controllers"
	"patrol_tracker/internal/metrics"
	"patrol_tracker/internal/middleware"
)

// SetupRouter builds the engine with every route group mounted.
func SetupRouter(h *controllers.Handler, auth *middleware.Auth, m *metrics.PatrolMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(
		ginlog.WithWriter(logrus.StandardLogger().Out),
		ginlog.WithUTC(true),
		ginlog.WithSkipPath([]string{"/healthz", "/metrics"}),
	))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	AuthRoutes(r, h)
	GuardRoutes(r, h, auth)
	AdminRoutes(r, h, auth)
	WebSocketRoutes(r, h)

	return r
}
