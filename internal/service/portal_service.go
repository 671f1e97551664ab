package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// ErrPortalVideoNotFound covers detail requests for videos that do not
// exist, are not ready, or fall outside the student's allowed subjects. The
// three cases are deliberately indistinguishable to the caller.
var ErrPortalVideoNotFound = errors.New("video not available")

// PortalService serves the read side for authenticated students.
type PortalService interface {
	Catalog(ctx context.Context, studentID uint) (dto.PortalVideoListResponse, error)
	VideoDetail(ctx context.Context, studentID, videoID uint, ip, deviceID string) (dto.PortalVideoResponse, error)
}

type portalService struct {
	students   repository.StudentRepository
	subjects   repository.SubjectRepository
	videos     repository.VideoRepository
	accessLogs repository.AccessLogRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewPortalService constructs the student portal service. A nil redis client
// disables caching.
func NewPortalService(students repository.StudentRepository, subjects repository.SubjectRepository, videos repository.VideoRepository, accessLogs repository.AccessLogRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) PortalService {
	return &portalService{
		students:   students,
		subjects:   subjects,
		videos:     videos,
		accessLogs: accessLogs,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "portal_service").Logger(),
	}
}

// Catalog lists the student's allowed subjects and their ready videos. The
// allowed set is re-read from the store on every call so a roster edit takes
// effect without waiting for token expiry.
func (s *portalService) Catalog(ctx context.Context, studentID uint) (dto.PortalVideoListResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.PortalVideoListResponse{}, err
	}
	if !student.Authorized {
		return dto.PortalVideoListResponse{}, ErrNotAuthorized
	}

	if cached, ok := s.cachedCatalog(ctx, student); ok {
		cached.CacheHit = true
		return cached, nil
	}

	subjects, err := s.subjects.ListByIDs(ctx, student.AllowedSubjects)
	if err != nil {
		return dto.PortalVideoListResponse{}, err
	}

	activeIDs := make([]uint, 0, len(subjects))
	subjectResponses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		if !subject.IsActive {
			continue
		}
		activeIDs = append(activeIDs, subject.ID)
		subjectResponses = append(subjectResponses, dto.SubjectFromModel(subject))
	}

	videoResponses := []dto.PortalVideoResponse{}
	if len(activeIDs) > 0 {
		videos, err := s.videos.ListByFilter(ctx, repository.VideoFilter{
			SubjectIDs: activeIDs,
			Status:     models.VideoStatusReady,
			OnlyActive: true,
		})
		if err != nil {
			return dto.PortalVideoListResponse{}, err
		}
		for _, video := range videos {
			videoResponses = append(videoResponses, dto.PortalVideoFromModel(video))
		}
	}

	response := dto.PortalVideoListResponse{
		Subjects: subjectResponses,
		Videos:   videoResponses,
	}
	s.storeCatalog(ctx, student, response)
	return response, nil
}

// VideoDetail returns one playable video and records the view.
func (s *portalService) VideoDetail(ctx context.Context, studentID, videoID uint, ip, deviceID string) (dto.PortalVideoResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.PortalVideoResponse{}, err
	}
	if !student.Authorized {
		return dto.PortalVideoResponse{}, ErrNotAuthorized
	}

	video, err := s.videos.GetByID(ctx, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.PortalVideoResponse{}, ErrPortalVideoNotFound
	}
	if err != nil {
		return dto.PortalVideoResponse{}, err
	}

	if video.Status != models.VideoStatusReady || !video.IsActive || !student.CanAccessSubject(video.SubjectID) {
		return dto.PortalVideoResponse{}, ErrPortalVideoNotFound
	}

	now := time.Now().UTC()
	student.LastAccessAt = &now
	if err := s.students.Update(ctx, &student); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("last access update failed")
	}

	entry := models.AccessLog{
		ProfessorID: student.ProfessorID,
		StudentID:   student.ID,
		VideoID:     &video.ID,
		Action:      models.AccessActionVideoView,
		IP:          ip,
		DeviceID:    deviceID,
	}
	if err := s.accessLogs.Create(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("video_id", video.ID).Msg("view log write failed")
	}

	return dto.PortalVideoFromModel(video), nil
}

func (s *portalService) cachedCatalog(ctx context.Context, student models.Student) (dto.PortalVideoListResponse, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return dto.PortalVideoListResponse{}, false
	}

	raw, err := s.cache.Get(ctx, s.catalogKey(student)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("portal cache read failed")
		}
		return dto.PortalVideoListResponse{}, false
	}

	var cached dto.PortalVideoListResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return dto.PortalVideoListResponse{}, false
	}
	return cached, true
}

func (s *portalService) storeCatalog(ctx context.Context, student models.Student, response dto.PortalVideoListResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.catalogKey(student), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("portal cache write failed")
	}
}

func (s *portalService) catalogKey(student models.Student) string {
	return fmt.Sprintf("portal:catalog:%d", student.ID)
}
