package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/middleware"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/observability"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// Access verification failures.
var (
	ErrCodeNotFound   = errors.New("student code not recognized")
	ErrNotAuthorized  = errors.New("student access revoked")
	ErrDeviceMismatch = errors.New("code is bound to a different device")
)

const studentSessionTTL = 12 * time.Hour

// Verification outcomes recorded in metrics.
const (
	verifyOutcomeAllowed        = "allowed"
	verifyOutcomeUnknownCode    = "unknown_code"
	verifyOutcomeRevoked        = "revoked"
	verifyOutcomeDeviceMismatch = "device_mismatch"
)

// AccessService verifies student codes, binds devices, and renews sessions.
type AccessService interface {
	Verify(ctx context.Context, req dto.StudentVerifyRequest, ip string) (dto.StudentVerifyResponse, error)
	Refresh(ctx context.Context, studentID uint, deviceID, ip string) (dto.StudentVerifyResponse, error)
}

type accessService struct {
	students   repository.StudentRepository
	subjects   repository.SubjectRepository
	accessLogs repository.AccessLogRepository
	jwtSecret  string
	logger     zerolog.Logger
}

// NewAccessService constructs the student access service.
func NewAccessService(students repository.StudentRepository, subjects repository.SubjectRepository, accessLogs repository.AccessLogRepository, jwtSecret string, logger zerolog.Logger) AccessService {
	return &accessService{
		students:   students,
		subjects:   subjects,
		accessLogs: accessLogs,
		jwtSecret:  jwtSecret,
		logger:     logger.With().Str("component", "access_service").Logger(),
	}
}

// Verify resolves a code to a student, enforces the device binding, and
// issues a session token. The first successful verification binds the
// device identifier and IP; later attempts are rejected only when both
// differ from the binding.
func (s *accessService) Verify(ctx context.Context, req dto.StudentVerifyRequest, ip string) (dto.StudentVerifyResponse, error) {
	student, err := s.students.FindByCode(ctx, req.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.VerifyAttempts().WithLabelValues(verifyOutcomeUnknownCode).Inc()
		return dto.StudentVerifyResponse{Allowed: false}, ErrCodeNotFound
	}
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	if !student.Authorized {
		observability.VerifyAttempts().WithLabelValues(verifyOutcomeRevoked).Inc()
		s.logAccess(ctx, student, nil, models.AccessActionVerifyDenied, ip, req.DeviceID, "revoked")
		return dto.StudentVerifyResponse{Allowed: false}, ErrNotAuthorized
	}

	deviceID := req.DeviceID
	if req.Fingerprint != "" {
		deviceID = req.Fingerprint
	}

	if student.IsBound() && !s.matchesBinding(student, deviceID, ip) {
		observability.VerifyAttempts().WithLabelValues(verifyOutcomeDeviceMismatch).Inc()
		s.logAccess(ctx, student, nil, models.AccessActionDeviceMismatch, ip, deviceID, "")
		return dto.StudentVerifyResponse{
			Allowed: false,
			Reason:  "code is already in use on another device",
		}, ErrDeviceMismatch
	}

	if !student.IsBound() {
		now := time.Now().UTC()
		student.DeviceID = deviceID
		student.DeviceIP = ip
		student.BoundAt = &now
	}

	now := time.Now().UTC()
	student.LastAccessAt = &now
	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	token, err := middleware.IssueToken(s.jwtSecret, student.ID, middleware.RoleStudent, student.Code, deviceID, studentSessionTTL)
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	observability.VerifyAttempts().WithLabelValues(verifyOutcomeAllowed).Inc()
	s.logAccess(ctx, student, nil, models.AccessActionVerify, ip, deviceID, "")

	subjects, err := s.allowedSubjects(ctx, student)
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	studentResp := dto.StudentFromModel(student)
	return dto.StudentVerifyResponse{
		Allowed:  true,
		Token:    token,
		Student:  &studentResp,
		Subjects: subjects,
	}, nil
}

// Refresh re-issues a session token. The device binding is re-checked
// against the store so a revoked or rebound code cannot keep a live
// session alive through renewals.
func (s *accessService) Refresh(ctx context.Context, studentID uint, deviceID, ip string) (dto.StudentVerifyResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentVerifyResponse{}, ErrCodeNotFound
	}
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	if !student.Authorized {
		s.logAccess(ctx, student, nil, models.AccessActionVerifyDenied, ip, deviceID, "revoked")
		return dto.StudentVerifyResponse{}, ErrNotAuthorized
	}

	if student.IsBound() && !s.matchesBinding(student, deviceID, ip) {
		s.logAccess(ctx, student, nil, models.AccessActionDeviceMismatch, ip, deviceID, "refresh")
		return dto.StudentVerifyResponse{}, ErrDeviceMismatch
	}

	now := time.Now().UTC()
	student.LastAccessAt = &now
	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	token, err := middleware.IssueToken(s.jwtSecret, student.ID, middleware.RoleStudent, student.Code, deviceID, studentSessionTTL)
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	s.logAccess(ctx, student, nil, models.AccessActionRefresh, ip, deviceID, "")

	subjects, err := s.allowedSubjects(ctx, student)
	if err != nil {
		return dto.StudentVerifyResponse{}, err
	}

	studentResp := dto.StudentFromModel(student)
	return dto.StudentVerifyResponse{
		Allowed:  true,
		Token:    token,
		Student:  &studentResp,
		Subjects: subjects,
	}, nil
}

// matchesBinding accepts the attempt when either the device identifier or
// the IP matches the recorded binding. Rejection requires both to differ,
// so a student on a new network keeps access from their bound device.
func (s *accessService) matchesBinding(student models.Student, deviceID, ip string) bool {
	if student.DeviceID != "" && student.DeviceID == deviceID {
		return true
	}
	if student.DeviceIP != "" && student.DeviceIP == ip {
		return true
	}
	return false
}

func (s *accessService) allowedSubjects(ctx context.Context, student models.Student) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.ListByIDs(ctx, student.AllowedSubjects)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		if !subject.IsActive {
			continue
		}
		responses = append(responses, dto.SubjectFromModel(subject))
	}
	return responses, nil
}

func (s *accessService) logAccess(ctx context.Context, student models.Student, videoID *uint, action, ip, deviceID, detail string) {
	entry := models.AccessLog{
		ProfessorID: student.ProfessorID,
		StudentID:   student.ID,
		VideoID:     videoID,
		Action:      action,
		IP:          ip,
		DeviceID:    deviceID,
		Detail:      detail,
	}
	if err := s.accessLogs.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Str("action", action).Msg("access log write failed")
	}
}
