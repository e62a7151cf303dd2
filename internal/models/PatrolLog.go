package models

import (
	"time"
)

// PatrolLog is an append-only scan event: who scanned what, when, from where,
// and whether the position was trusted.
type PatrolLog struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	GuardID        uint        `json:"guard_id" gorm:"not null;index:idx_guard_scanned"`
	Guard          *User       `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
	CheckpointID   uint        `json:"checkpoint_id" gorm:"not null;index"`
	Checkpoint     *Checkpoint `gorm:"foreignKey:CheckpointID" json:"checkpoint,omitempty"`
	GPSLat         float64     `json:"gps_lat"`
	GPSLong        float64     `json:"gps_long"`
	DistanceMeters float64     `json:"distance_meters"`
	IsVerified     bool        `json:"is_verified"`
	ScannedAt      time.Time   `json:"scanned_at" gorm:"not null;index:idx_guard_scanned"`
}

// GuardLocation is the most recent position reported by a guard. One row per guard,
// overwritten on every ping.
type GuardLocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GuardID   uint      `json:"guard_id" gorm:"uniqueIndex;not null"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // GPS accuracy in meters
	UpdatedAt time.Time `json:"updated_at"`
}
