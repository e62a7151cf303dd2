// internal/models/site.go
package models

import (
	"gorm.io/gorm"
)

// Site is a guarded premises grouping a set of checkpoints.
type Site struct {
	gorm.Model
	Name string `json:"name" binding:"required"`

	Checkpoints []Checkpoint `gorm:"foreignKey:SiteID" json:"checkpoints,omitempty"`
}
