package dto

import (
	"time"

	"github.com/aulavid/aulavid-api/internal/models"
)

// VideoResponse serializes a video for admin API responses.
type VideoResponse struct {
	ID            uint      `json:"id"`
	SubjectID     uint      `json:"subject_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	Position      int       `json:"position"`
	Status        string    `json:"status"`
	IsActive      bool      `json:"is_active"`
	MuxUploadID   string    `json:"mux_upload_id,omitempty"`
	MuxAssetID    string    `json:"mux_asset_id,omitempty"`
	MuxPlaybackID string    `json:"mux_playback_id,omitempty"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `json:"mime_type"`
	Duration      float64   `json:"duration"`
	AspectRatio   string    `json:"aspect_ratio"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VideoUpdateRequest validates video metadata edits. Lifecycle fields are
// not accepted here: status and the active bit only move through
// reconciliation.
type VideoUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required"`
	Position    *int     `json:"position" validate:"omitempty,gte=0"`
	SubjectID   *uint    `json:"subject_id" validate:"omitempty,gt=0"`
}

// VideoStatusResponse reports reconciliation state for one video.
type VideoStatusResponse struct {
	VideoID       uint   `json:"video_id"`
	Status        string `json:"status"`
	IsActive      bool   `json:"is_active"`
	MuxAssetID    string `json:"mux_asset_id,omitempty"`
	MuxPlaybackID string `json:"mux_playback_id,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Reconciled    bool   `json:"reconciled"`
}

// VideoFromModel maps a video model to its response shape.
func VideoFromModel(video models.Video) VideoResponse {
	return VideoResponse{
		ID:            video.ID,
		SubjectID:     video.SubjectID,
		Name:          video.Name,
		Description:   video.Description,
		Tags:          video.Tags,
		Position:      video.Position,
		Status:        video.Status,
		IsActive:      video.IsActive,
		MuxUploadID:   video.MuxUploadID,
		MuxAssetID:    video.MuxAssetID,
		MuxPlaybackID: video.MuxPlaybackID,
		FileSize:      video.FileSize,
		MimeType:      video.MimeType,
		Duration:      video.Duration,
		AspectRatio:   video.AspectRatio,
		ErrorMessage:  video.ErrorMessage,
		CreatedAt:     video.CreatedAt,
		UpdatedAt:     video.UpdatedAt,
	}
}
