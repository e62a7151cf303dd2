package routes

import (
	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/controllers"
)

func AuthRoutes(r *gin.Engine, h *controllers.Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.SignupGuard)
		auth.POST("/admin/signup", h.SignupAdmin)
		auth.POST("/login", h.Login)
	}
}
