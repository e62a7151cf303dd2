package models

import "time"

// Incident is a free-text report from a guard with its derived summary and severity.
type Incident struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	GuardID     uint      `json:"guard_id" gorm:"not null;index"`
	Guard       *User     `gorm:"foreignKey:GuardID" json:"guard,omitempty"`
	Description string    `json:"description" gorm:"type:text;not null"`
	AISummary   string    `json:"ai_summary"` // "[HIGH] Fire in stairwell"
	Severity    string    `json:"severity" gorm:"index"`
}
