package routes

import (
	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/controllers"
	"patrol_tracker/internal/middleware"
	"patrol_tracker/internal/models"
)

func GuardRoutes(r *gin.Engine, h *controllers.Handler, auth *middleware.Auth) {
	guard := r.Group("/guard")
	guard.Use(auth.RequireAuthWithRole(models.RoleGuard))
	{
		guard.POST("/scans", h.SubmitScan)
		guard.GET("/next-checkpoint", h.NextCheckpoint)
		guard.GET("/route", h.MyRoute)
		guard.POST("/incidents", h.ReportIncident)
		guard.POST("/location", h.UpdateLocation)
	}
}
