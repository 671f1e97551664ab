package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// ErrVideoNotFound marks reads of a missing or foreign-owned video.
var ErrVideoNotFound = errors.New("video not found")

const remoteDeleteTimeout = 15 * time.Second

// VideoService manages a professor's videos.
type VideoService interface {
	List(ctx context.Context, professorID uint, filter repository.VideoFilter) ([]dto.VideoResponse, error)
	Get(ctx context.Context, professorID, id uint) (dto.VideoResponse, error)
	Update(ctx context.Context, professorID, id uint, req dto.VideoUpdateRequest) (dto.VideoResponse, error)
	Delete(ctx context.Context, professorID, id uint) error
}

type videoService struct {
	videos    repository.VideoRepository
	subjects  repository.SubjectRepository
	provider  VideoProvider
	reconcile ReconcileService
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewVideoService constructs the video service.
func NewVideoService(
	videos repository.VideoRepository,
	subjects repository.SubjectRepository,
	provider VideoProvider,
	reconcile ReconcileService,
	logger zerolog.Logger,
) VideoService {
	return &videoService{
		videos:    videos,
		subjects:  subjects,
		provider:  provider,
		reconcile: reconcile,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "video_service").Logger(),
	}
}

func (s *videoService) List(ctx context.Context, professorID uint, filter repository.VideoFilter) ([]dto.VideoResponse, error) {
	videos, err := s.videos.ListByProfessor(ctx, professorID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.VideoResponse, 0, len(videos))
	for _, video := range videos {
		responses = append(responses, dto.VideoFromModel(video))
	}
	return responses, nil
}

// Get returns one video, lazily reconciling it against the provider when it
// is still in flight. Reconciliation on read keeps records honest even when
// webhook delivery never happens.
func (s *videoService) Get(ctx context.Context, professorID, id uint) (dto.VideoResponse, error) {
	video, err := s.videos.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.VideoResponse{}, ErrVideoNotFound
	}
	if err != nil {
		return dto.VideoResponse{}, err
	}

	if !video.IsTerminal() && s.reconcile != nil {
		s.reconcile.Refresh(ctx, &video, ReconcileSourcePoll)
	}

	return dto.VideoFromModel(video), nil
}

func (s *videoService) Update(ctx context.Context, professorID, id uint, req dto.VideoUpdateRequest) (dto.VideoResponse, error) {
	video, err := s.videos.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.VideoResponse{}, ErrVideoNotFound
	}
	if err != nil {
		return dto.VideoResponse{}, err
	}

	if req.Name != nil {
		video.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		video.Description = s.sanitizer.Sanitize(*req.Description)
	}
	if req.Tags != nil {
		video.Tags = req.Tags
	}
	if req.Position != nil {
		video.Position = *req.Position
	}
	if req.SubjectID != nil && *req.SubjectID != video.SubjectID {
		if _, err := s.subjects.GetOwned(ctx, professorID, *req.SubjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.VideoResponse{}, ErrSubjectNotFound
			}
			return dto.VideoResponse{}, err
		}
		video.SubjectID = *req.SubjectID
	}

	if err := s.videos.Update(ctx, &video); err != nil {
		return dto.VideoResponse{}, err
	}

	return dto.VideoFromModel(video), nil
}

// Delete removes the record and makes a best-effort attempt at the remote
// asset. A provider failure is logged and swallowed: the local delete never
// rolls back because the remote side declined.
func (s *videoService) Delete(ctx context.Context, professorID, id uint) error {
	video, err := s.videos.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrVideoNotFound
	}
	if err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, professorID, id); err != nil {
		return err
	}

	if video.MuxAssetID != "" && s.provider != nil {
		deleteCtx, cancel := context.WithTimeout(ctx, remoteDeleteTimeout)
		defer cancel()
		if err := s.provider.DeleteAsset(deleteCtx, video.MuxAssetID); err != nil {
			s.logger.Warn().Err(err).Str("asset_id", video.MuxAssetID).Msg("remote asset delete failed; record removed anyway")
		}
	}

	s.logger.Info().Uint("video_id", id).Uint("professor_id", professorID).Msg("video deleted")
	return nil
}
