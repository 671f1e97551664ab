package dto

import (
	"fmt"
	"time"

	"github.com/aulavid/aulavid-api/internal/models"
)

// PortalVideoResponse serializes a video for the student portal. Only ready
// videos are listed; playback is exposed as a stream URL, never the raw
// asset identifier.
type PortalVideoResponse struct {
	ID          uint      `json:"id"`
	SubjectID   uint      `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Duration    float64   `json:"duration"`
	AspectRatio string    `json:"aspect_ratio"`
	StreamURL   string    `json:"stream_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// PortalVideoListResponse groups portal videos with their subjects.
type PortalVideoListResponse struct {
	Subjects []SubjectResponse     `json:"subjects"`
	Videos   []PortalVideoResponse `json:"videos"`
	CacheHit bool                  `json:"cache_hit,omitempty"`
}

// PortalVideoFromModel maps a video to its portal shape.
func PortalVideoFromModel(video models.Video) PortalVideoResponse {
	resp := PortalVideoResponse{
		ID:          video.ID,
		SubjectID:   video.SubjectID,
		Name:        video.Name,
		Description: video.Description,
		Tags:        video.Tags,
		Duration:    video.Duration,
		AspectRatio: video.AspectRatio,
		CreatedAt:   video.CreatedAt,
	}
	if video.MuxPlaybackID != "" {
		resp.StreamURL = fmt.Sprintf("https://stream.mux.com/%s.m3u8", video.MuxPlaybackID)
	}
	return resp
}
