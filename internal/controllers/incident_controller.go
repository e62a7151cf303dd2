package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/middleware"
)

const defaultIncidentLimit = 50

// ReportIncident classifies and stores a guard's free-text report
func (h *Handler) ReportIncident(c *gin.Context) {
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	inc, err := h.incidents.Report(c.Request.Context(), input.Text, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, inc)
}

// ListIncidents returns recent incidents, newest first. ?limit=0 returns all.
func (h *Handler) ListIncidents(c *gin.Context) {
	limit := defaultIncidentLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}
	incidents, err := h.incidents.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, incidents)
}
