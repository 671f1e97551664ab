package dto

import (
	"time"

	"github.com/aulavid/aulavid-api/internal/models"
)

// ProfessorResponse serializes a professor account. The password hash never
// leaves the model layer.
type ProfessorResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfessorCreateRequest validates superuser provisioning of accounts.
type ProfessorCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ProfessorFromModel maps a professor model to its response shape.
func ProfessorFromModel(professor models.Professor) ProfessorResponse {
	return ProfessorResponse{
		ID:        professor.ID,
		Name:      professor.Name,
		Email:     professor.Email,
		IsActive:  professor.IsActive,
		CreatedAt: professor.CreatedAt,
	}
}
