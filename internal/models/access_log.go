package models

import "time"

// Access log actions recorded for the viewing ledger.
const (
	AccessActionVerify         = "verify"
	AccessActionVerifyDenied   = "verify_denied"
	AccessActionRefresh        = "refresh"
	AccessActionVideoView      = "video_view"
	AccessActionDeviceMismatch = "device_mismatch"
)

// AccessLog is one row of the student access ledger.
type AccessLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProfessorID uint      `gorm:"index" json:"professor_id"`
	StudentID   uint      `gorm:"index" json:"student_id"`
	VideoID     *uint     `gorm:"index" json:"video_id,omitempty"`
	Action      string    `gorm:"size:32;not null" json:"action"`
	IP          string    `gorm:"size:64" json:"ip"`
	DeviceID    string    `gorm:"size:255" json:"device_id"`
	Detail      string    `gorm:"size:255" json:"detail"`
	CreatedAt   time.Time `json:"created_at"`
}
