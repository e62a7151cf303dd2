package models

import (
	"gorm.io/gorm"
)

// Checkpoint is a fixed physical location guards scan on their rounds.
// Its coordinates are what a scan's reported GPS is measured against.
type Checkpoint struct {
	gorm.Model

	Name      string  `json:"name" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	SiteID uint  `json:"site_id" gorm:"index"`
	Site   *Site `gorm:"foreignKey:SiteID" json:"site,omitempty"`
}
