package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/apperr"
)

// CreateSite registers a new guarded site
func (h *Handler) CreateSite(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		respondError(c, apperr.InvalidInput("site name is required"))
		return
	}

	site, err := h.store.CreateSite(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, site)
}

// ListSites lists all sites with their checkpoints
func (h *Handler) ListSites(c *gin.Context) {
	sites, err := h.store.ListSites(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sites)
}

// DeleteSite removes a site that has no checkpoints left
func (h *Handler) DeleteSite(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.DeleteSite(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Site deleted"})
}
