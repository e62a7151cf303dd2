package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListGuards returns every guard with duty status. Expired duties are swept first.
func (h *Handler) ListGuards(c *gin.Context) {
	guards, err := h.assignments.ListGuardsWithDutyStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, guards)
}

func (h *Handler) DutyStats(c *gin.Context) {
	stats, err := h.assignments.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}

// AssignRoute puts a guard on a route, ending any other active duty
func (h *Handler) AssignRoute(c *gin.Context) {
	var input struct {
		GuardID uint `json:"guard_id" binding:"required"`
		RouteID uint `json:"route_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	a, err := h.assignments.Assign(c.Request.Context(), input.GuardID, input.RouteID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, a)
}

// UnassignRoute takes a guard off their route.
func (h *Handler) UnassignRoute(c *gin.Context) {
	h.deactivate(c, "Route unassigned")
}

// ResetDuty ends the guard's current duty so a new one can be assigned.
func (h *Handler) ResetDuty(c *gin.Context) {
	h.deactivate(c, "Duty reset")
}

func (h *Handler) deactivate(c *gin.Context, message string) {
	guardID, err := idParam(c, "guardId")
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.assignments.Deactivate(c.Request.Context(), guardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "reset_count": n})
}

// SweepDuty expires every duty older than one cycle. External schedulers call this.
func (h *Handler) SweepDuty(c *gin.Context) {
	expired, err := h.assignments.SweepExpired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reset_count": len(expired), "data": expired})
}
