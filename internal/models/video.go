package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Video lifecycle states. A video starts in processing at upload-confirm
// time and converges on ready or errored through reconciliation; ready and
// errored are terminal.
const (
	VideoStatusProcessing   = "processing"
	VideoStatusReady        = "ready"
	VideoStatusErrored      = "errored"
	VideoStatusUploadFailed = "upload_failed"
	VideoStatusNoConfirm    = "no_confirm"
)

// Video is a single lesson asset tracked through its upload and transcode
// lifecycle against the remote video provider.
type Video struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProfessorID   uint      `gorm:"index;not null" json:"professor_id"`
	SubjectID     uint      `gorm:"index;not null" json:"subject_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	TagsRaw       string    `gorm:"column:tags;type:text" json:"-"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	Status        string    `gorm:"size:32;not null;index" json:"status"`
	IsActive      bool      `gorm:"not null;default:false" json:"is_active"`
	MuxUploadID   string    `gorm:"size:255;index" json:"mux_upload_id"`
	MuxAssetID    string    `gorm:"size:255;index" json:"mux_asset_id"`
	MuxPlaybackID string    `gorm:"size:255" json:"mux_playback_id"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `gorm:"size:128" json:"mime_type"`
	Duration      float64   `json:"duration"`
	AspectRatio   string    `gorm:"size:32" json:"aspect_ratio"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	LegacyFileID  string    `gorm:"size:255" json:"legacy_file_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Tags          []string  `gorm:"-" json:"tags"`
}

// IsTerminal reports whether the video has settled. upload_failed and
// no_confirm are not terminal: a later provider check may still move them
// forward.
func (v *Video) IsTerminal() bool {
	return v.Status == VideoStatusReady || v.Status == VideoStatusErrored
}

// BeforeSave derives the active bit from status and normalises tags.
// is_active is never accepted as independent input: a video is active
// exactly when it is ready.
func (v *Video) BeforeSave(tx *gorm.DB) error {
	v.IsActive = v.Status == VideoStatusReady
	v.TagsRaw = encodeTags(v.Tags)
	return nil
}

// AfterFind hydrates the tag list after retrieval.
func (v *Video) AfterFind(tx *gorm.DB) error {
	v.Tags = decodeTags(v.TagsRaw)
	return nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(strings.ToLower(tag))
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeTags(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}
	return tags
}
