package models

import "gorm.io/gorm"

const (
	RoleGuard = "GUARD"
	RoleAdmin = "ADMIN"
)

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Password string `json:"-"`
	Role     string `json:"role" gorm:"index;not null"` // "GUARD", "ADMIN"
}
