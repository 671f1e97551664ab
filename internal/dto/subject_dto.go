package dto

import (
	"time"

	"github.com/aulavid/aulavid-api/internal/models"
)

// SubjectResponse serializes a subject for API responses.
type SubjectResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"is_active"`
	VideoCount  int64     `json:"video_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SubjectCreateRequest validates subject creation.
type SubjectCreateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Position    int    `json:"position" validate:"omitempty,gte=0"`
}

// SubjectUpdateRequest validates subject updates. Nil fields are left
// untouched.
type SubjectUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}

// SubjectFromModel maps a subject model to its response shape.
func SubjectFromModel(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		Description: subject.Description,
		Color:       subject.Color,
		Position:    subject.Position,
		IsActive:    subject.IsActive,
		CreatedAt:   subject.CreatedAt,
		UpdatedAt:   subject.UpdatedAt,
	}
}
