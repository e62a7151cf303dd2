package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"patrol_tracker/internal/apperr"
	"patrol_tracker/internal/assignment"
	"patrol_tracker/internal/clock"
	"patrol_tracker/internal/incident"
	"patrol_tracker/internal/middleware"
	"patrol_tracker/internal/patrol"
	"patrol_tracker/internal/store"
)

// Handler carries the services behind every HTTP endpoint.
type Handler struct {
	store       *store.Store
	auth        *middleware.Auth
	assignments *assignment.Manager
	patrol      *patrol.Service
	incidents   *incident.Service
	hub         *LocationHub
	clock       clock.Clock

	adminAccessKey string
}

type Deps struct {
	Store          *store.Store
	Auth           *middleware.Auth
	Assignments    *assignment.Manager
	Patrol         *patrol.Service
	Incidents      *incident.Service
	Hub            *LocationHub
	Clock          clock.Clock
	AdminAccessKey string
}

func NewHandler(d Deps) *Handler {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	return &Handler{
		store:          d.Store,
		auth:           d.Auth,
		assignments:    d.Assignments,
		patrol:         d.Patrol,
		incidents:      d.Incidents,
		hub:            d.Hub,
		clock:          d.Clock,
		adminAccessKey: d.AdminAccessKey,
	}
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindConflictBlocked:
		return http.StatusConflict
	case apperr.KindSessionInvalid:
		return http.StatusUnauthorized
	case apperr.KindExternalServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err as {success:false, code, error}. Internal details
// are logged by the store and never reach the client.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.JSON(statusFor(kind), gin.H{
		"success": false,
		"code":    kind,
		"error":   apperr.Message(err),
	})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func bindError(c *gin.Context, err error) {
	respondError(c, apperr.InvalidInput("Invalid input: %s", err.Error()))
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidInput("invalid %s", name)
	}
	return uint(id), nil
}
