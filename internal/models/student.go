package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Student is a code-authenticated viewer scoped to a subset of one
// professor's subjects. The code is unique within a professor's roster;
// cross-professor collisions are resolved by oldest enrolment on lookup.
type Student struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	ProfessorID        uint           `gorm:"not null;uniqueIndex:idx_students_professor_code" json:"professor_id"`
	Code               string         `gorm:"size:64;not null;uniqueIndex:idx_students_professor_code;index" json:"code"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	Email              string         `gorm:"size:255" json:"email"`
	Authorized         bool           `gorm:"not null;default:true" json:"authorized"`
	AllowedSubjectsRaw datatypes.JSON `gorm:"column:allowed_subjects;type:json" json:"-"`
	DeviceID           string         `gorm:"size:255" json:"device_id"`
	DeviceIP           string         `gorm:"size:64" json:"device_ip"`
	BoundAt            *time.Time     `json:"bound_at,omitempty"`
	EnrolledAt         time.Time      `json:"enrolled_at"`
	LastAccessAt       *time.Time     `json:"last_access_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	AllowedSubjects    []uint         `gorm:"-" json:"allowed_subjects"`
}

// IsBound reports whether a device binding has been recorded.
func (s *Student) IsBound() bool {
	return s.BoundAt != nil && (s.DeviceID != "" || s.DeviceIP != "")
}

// GrantSubjects unions the given subject IDs into the allowed set. The set
// only grows; revocation is an explicit roster edit, not a grant with fewer
// entries.
func (s *Student) GrantSubjects(ids []uint) {
	seen := make(map[uint]struct{}, len(s.AllowedSubjects))
	for _, id := range s.AllowedSubjects {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		s.AllowedSubjects = append(s.AllowedSubjects, id)
	}
}

// CanAccessSubject reports whether the student may view the given subject.
func (s *Student) CanAccessSubject(subjectID uint) bool {
	for _, id := range s.AllowedSubjects {
		if id == subjectID {
			return true
		}
	}
	return false
}

// BeforeSave serialises the allowed-subject set.
func (s *Student) BeforeSave(tx *gorm.DB) error {
	if s.AllowedSubjects == nil {
		s.AllowedSubjects = []uint{}
	}
	raw, err := json.Marshal(s.AllowedSubjects)
	if err != nil {
		return err
	}
	s.AllowedSubjectsRaw = datatypes.JSON(raw)
	return nil
}

// AfterFind hydrates the allowed-subject set.
func (s *Student) AfterFind(tx *gorm.DB) error {
	s.AllowedSubjects = []uint{}
	if len(s.AllowedSubjectsRaw) == 0 {
		return nil
	}
	return json.Unmarshal(s.AllowedSubjectsRaw, &s.AllowedSubjects)
}
