package routes

import (
	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/controllers"
	"patrol_tracker/internal/middleware"
	"patrol_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine, h *controllers.Handler, auth *middleware.Auth) {
	admin := r.Group("/admin")
	admin.Use(auth.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/guards", h.ListGuards)
		admin.GET("/guards/locations", h.ListGuardLocations)

		admin.GET("/duty/stats", h.DutyStats)
		admin.POST("/duty/sweep", h.SweepDuty)
		admin.POST("/duty/:guardId/reset", h.ResetDuty)

		admin.POST("/assignments", h.AssignRoute)
		admin.DELETE("/assignments/:guardId", h.UnassignRoute)

		admin.GET("/sites", h.ListSites)
		admin.POST("/sites", h.CreateSite)
		admin.DELETE("/sites/:id", h.DeleteSite)

		admin.GET("/checkpoints", h.ListCheckpoints)
		admin.POST("/checkpoints", h.CreateCheckpoint)
		admin.PUT("/checkpoints/:id", h.UpdateCheckpoint)
		admin.DELETE("/checkpoints/:id", h.DeleteCheckpoint)

		admin.GET("/routes", h.ListRoutes)
		admin.POST("/routes", h.SaveDefaultRoute)
		admin.POST("/routes/default", h.EnsureDefaultRoute)
		admin.GET("/routes/:id/geometry", h.RouteGeometry)

		admin.GET("/incidents", h.ListIncidents)
		admin.GET("/scans", h.ListTodayScans)
	}
}
