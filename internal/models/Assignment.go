package models

import (
	"time"

	"gorm.io/gorm"
)

// GuardRouteAssignment links a guard to a route. Rows are reused per (guard, route)
// and deactivated rather than deleted, so the table doubles as an audit trail.
// A guard has at most one row with IsActive set.
type GuardRouteAssignment struct {
	gorm.Model
	GuardID    uint        `json:"guard_id" gorm:"not null;uniqueIndex:idx_guard_route"`
	Guard      User        `gorm:"foreignKey:GuardID" json:"-"`
	RouteID    uint        `json:"route_id" gorm:"not null;uniqueIndex:idx_guard_route"`
	Route      PatrolRoute `gorm:"foreignKey:RouteID" json:"route"`
	IsActive   bool        `json:"is_active" gorm:"not null;index"`
	AssignedAt time.Time   `json:"assigned_at" gorm:"not null;index"`
}
