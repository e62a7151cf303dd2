package routes

import (
	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/controllers"
)

// WebSocketRoutes authenticates with ?token= because browsers cannot set headers on upgrade.
func WebSocketRoutes(r *gin.Engine, h *controllers.Handler) {
	ws := r.Group("/ws")
	{
		ws.GET("/locations", h.HandleLocationWebSocket)
	}
}
