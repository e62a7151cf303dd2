package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"patrol_tracker/internal/models"
)

// RouteResponse is a route as listed to admins.
type RouteResponse struct {
	ID              uint                `json:"id"`
	Name            string              `json:"name"`
	IsDefault       bool                `json:"is_default"`
	CheckpointCount int                 `json:"checkpoint_count"`
	Checkpoints     []models.Checkpoint `json:"checkpoints"`
}

func toRouteResponse(route models.PatrolRoute) RouteResponse {
	cps := route.OrderedCheckpoints()
	return RouteResponse{
		ID:              route.ID,
		Name:            route.Name,
		IsDefault:       route.IsDefault,
		CheckpointCount: len(cps),
		Checkpoints:     cps,
	}
}

// routeFeatures renders a route as GeoJSON: the walking path as a LineString
// (when there are at least two stops) followed by one Point per checkpoint.
func routeFeatures(route *models.PatrolRoute) (*gjson.FeatureCollection, error) {
	cps := route.OrderedCheckpoints()
	fc := &gjson.FeatureCollection{Features: make([]*gjson.Feature, 0, len(cps)+1)}

	if len(cps) >= 2 {
		coords := make([]geom.Coord, 0, len(cps))
		for _, cp := range cps {
			coords = append(coords, geom.Coord{cp.Longitude, cp.Latitude})
		}
		path, err := geom.NewLineString(geom.XY).SetCoords(coords)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       "route-" + strconv.FormatUint(uint64(route.ID), 10),
			Geometry: path,
			Properties: map[string]interface{}{
				"route_id": route.ID,
				"name":     route.Name,
				"kind":     "path",
			},
		})
	}

	for i, cp := range cps {
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       "checkpoint-" + strconv.FormatUint(uint64(cp.ID), 10),
			Geometry: geom.NewPointFlat(geom.XY, []float64{cp.Longitude, cp.Latitude}),
			Properties: map[string]interface{}{
				"checkpoint_id": cp.ID,
				"name":          cp.Name,
				"position":      i,
				"kind":          "checkpoint",
			},
		})
	}
	return fc, nil
}

// ListRoutes returns all routes with their ordered checkpoints
func (h *Handler) ListRoutes(c *gin.Context) {
	routes, err := h.store.ListRoutes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	respondData(c, http.StatusOK, out)
}

// SaveDefaultRoute replaces the default route's checkpoint order
func (h *Handler) SaveDefaultRoute(c *gin.Context) {
	var input struct {
		Name          string `json:"name"`
		CheckpointIDs []uint `json:"checkpoint_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	route, err := h.store.SaveDefaultRoute(c.Request.Context(), input.Name, input.CheckpointIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, toRouteResponse(*route))
}

// EnsureDefaultRoute seeds a one-stop default route when no route exists yet
func (h *Handler) EnsureDefaultRoute(c *gin.Context) {
	route, err := h.store.EnsureDefaultRoute(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if route == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Routes already exist"})
		return
	}
	respondData(c, http.StatusOK, toRouteResponse(*route))
}

// RouteGeometry returns a route as a GeoJSON FeatureCollection for map display
func (h *Handler) RouteGeometry(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	route, err := h.store.Route(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	fc, err := routeFeatures(route)
	if err != nil {
		respondError(c, err)
		return
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", b)
}
