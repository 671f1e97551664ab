package dto

import (
	"time"

	"github.com/aulavid/aulavid-api/internal/models"
)

// StudentResponse serializes a roster entry.
type StudentResponse struct {
	ID              uint       `json:"id"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Authorized      bool       `json:"authorized"`
	AllowedSubjects []uint     `json:"allowed_subjects"`
	DeviceBound     bool       `json:"device_bound"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
	LastAccessAt    *time.Time `json:"last_access_at,omitempty"`
}

// StudentCreateRequest validates roster additions. An empty code asks the
// server to generate one.
type StudentCreateRequest struct {
	Code            string `json:"code" validate:"omitempty,min=3,max=64"`
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Email           string `json:"email" validate:"omitempty,email"`
	AllowedSubjects []uint `json:"allowed_subjects" validate:"omitempty,dive,gt=0"`
}

// StudentUpdateRequest validates roster edits. AllowedSubjects is a grant:
// the stored set is the union of old and new, never a replacement.
type StudentUpdateRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Authorized      *bool   `json:"authorized"`
	AllowedSubjects []uint  `json:"allowed_subjects" validate:"omitempty,dive,gt=0"`
	ResetDevice     bool    `json:"reset_device"`
}

// StudentFromModel maps a student model to its response shape.
func StudentFromModel(student models.Student) StudentResponse {
	return StudentResponse{
		ID:              student.ID,
		Code:            student.Code,
		Name:            student.Name,
		Email:           student.Email,
		Authorized:      student.Authorized,
		AllowedSubjects: student.AllowedSubjects,
		DeviceBound:     student.IsBound(),
		EnrolledAt:      student.EnrolledAt,
		LastAccessAt:    student.LastAccessAt,
	}
}
