package models

import (
	"sort"

	"gorm.io/gorm"
)

// PatrolRoute is an ordered sequence of checkpoints walked repeatedly.
// At most one route is flagged IsDefault; it serves guards without an assignment.
type PatrolRoute struct {
	gorm.Model

	Name      string `json:"name" gorm:"uniqueIndex;not null"`
	IsDefault bool   `json:"is_default" gorm:"not null"`

	// Stops are kept ordered by Position when loaded through the store.
	Stops []RouteCheckpoint `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
}

// RouteCheckpoint places a checkpoint at a 0-based position within a route.
type RouteCheckpoint struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RouteID      uint       `json:"route_id" gorm:"not null;uniqueIndex:idx_route_position;uniqueIndex:idx_route_checkpoint"`
	Position     int        `json:"position" gorm:"not null;uniqueIndex:idx_route_position"`
	CheckpointID uint       `json:"checkpoint_id" gorm:"not null;index;uniqueIndex:idx_route_checkpoint"`
	Checkpoint   Checkpoint `gorm:"foreignKey:CheckpointID" json:"checkpoint"`
}

// OrderedCheckpoints returns the route's checkpoints by ascending Position.
func (r *PatrolRoute) OrderedCheckpoints() []Checkpoint {
	if r == nil {
		return nil
	}
	stops := make([]RouteCheckpoint, len(r.Stops))
	copy(stops, r.Stops)
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Position < stops[j].Position })

	out := make([]Checkpoint, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Checkpoint)
	}
	return out
}
