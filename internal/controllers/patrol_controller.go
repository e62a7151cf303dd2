package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patrol_tracker/internal/middleware"
	"patrol_tracker/internal/patrol"
	"patrol_tracker/internal/sequencer"
)

// SubmitScan records a checkpoint scan for the signed-in guard
func (h *Handler) SubmitScan(c *gin.Context) {
	var input struct {
		CheckpointID uint     `json:"checkpoint_id" binding:"required"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.patrol.SubmitScan(c.Request.Context(), patrol.ScanRequest{
		CheckpointID: input.CheckpointID,
		GuardID:      middleware.UserID(c),
		Lat:          input.Latitude,
		Lon:          input.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, res)
}

// NextCheckpoint tells the signed-in guard where to go next
func (h *Handler) NextCheckpoint(c *gin.Context) {
	view, err := h.patrol.NextCheckpointFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"next_checkpoint": view.Next,
		"progress":        view.Progress,
	})
}

// MyRoute returns the guard's current route with today's progress
func (h *Handler) MyRoute(c *gin.Context) {
	view, err := h.patrol.NextCheckpointFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, view)
}

// UpdateLocation stores a location ping and relays it to live monitors
func (h *Handler) UpdateLocation(c *gin.Context) {
	var input struct {
		Latitude  *float64 `json:"latitude" binding:"required"`
		Longitude *float64 `json:"longitude" binding:"required"`
		Accuracy  float64  `json:"accuracy"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	loc, err := h.patrol.UpdateLocation(c.Request.Context(), middleware.UserID(c), *input.Latitude, *input.Longitude, input.Accuracy)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, loc)
}

// ListTodayScans returns every scan since local midnight, newest first
func (h *Handler) ListTodayScans(c *gin.Context) {
	logs, err := h.store.ListPatrolLogsSince(c.Request.Context(), sequencer.StartOfDay(h.clock.Now()))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, logs)
}

// ListGuardLocations returns each guard's last known position
func (h *Handler) ListGuardLocations(c *gin.Context) {
	locs, err := h.store.GuardLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, locs)
}
