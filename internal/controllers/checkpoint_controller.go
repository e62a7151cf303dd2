package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/geofence"
	"patrol_tracker/internal/models"
)

type checkpointInput struct {
	Name      string   `json:"name" binding:"required"`
	SiteID    uint     `json:"site_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (in checkpointInput) toModel() (models.Checkpoint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Checkpoint{}, apperr.InvalidInput("checkpoint name is required")
	}
	if !geofence.ValidCoordinates(*in.Latitude, *in.Longitude) {
		return models.Checkpoint{}, apperr.InvalidInput("checkpoint coordinates are out of range")
	}
	return models.Checkpoint{
		Name:      name,
		SiteID:    in.SiteID,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
	}, nil
}

func (h *Handler) CreateCheckpoint(c *gin.Context) {
	var input checkpointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	cp, err := input.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.CreateCheckpoint(c.Request.Context(), &cp); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, cp)
}

func (h *Handler) ListCheckpoints(c *gin.Context) {
	cps, err := h.store.ListCheckpoints(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, cps)
}

// UpdateCheckpoint moves or renames a checkpoint that has no scan history
func (h *Handler) UpdateCheckpoint(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var input checkpointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	cp, err := input.toModel()
	if err != nil {
		respondError(c, err)
		return
	}
	cp.ID = id

	ctx := c.Request.Context()
	if err := h.store.UpdateCheckpoint(ctx, &cp); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.Checkpoint(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, updated)
}

// DeleteCheckpoint is refused while scan history or a route references the checkpoint
func (h *Handler) DeleteCheckpoint(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.DeleteCheckpoint(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Checkpoint deleted"})
}
