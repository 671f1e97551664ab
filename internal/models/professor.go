package models

import (
	"time"

	"gorm.io/datatypes"
)

// Professor is an instructor account that owns subjects, videos and students.
type Professor struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Email        string            `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string            `gorm:"size:255;not null" json:"-"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
	Settings     datatypes.JSONMap `gorm:"type:json" json:"settings"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
