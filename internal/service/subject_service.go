package service

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// Subject operation failures.
var (
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrSubjectHasVideos = errors.New("subject still has videos assigned")
)

// SubjectService manages a professor's subjects.
type SubjectService interface {
	List(ctx context.Context, professorID uint) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, professorID, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, professorID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, professorID, id uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, professorID, id uint) error
}

type subjectService struct {
	subjects  repository.SubjectRepository
	videos    repository.VideoRepository
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(subjects repository.SubjectRepository, videos repository.VideoRepository, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		videos:    videos,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context, professorID uint) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		response := dto.SubjectFromModel(subject)
		if count, countErr := s.videos.CountBySubject(ctx, subject.ID); countErr == nil {
			response.VideoCount = count
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (s *subjectService) Get(ctx context.Context, professorID, id uint) (dto.SubjectResponse, error) {
	subject, err := s.subjects.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubjectResponse{}, ErrSubjectNotFound
	}
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	response := dto.SubjectFromModel(subject)
	if count, countErr := s.videos.CountBySubject(ctx, subject.ID); countErr == nil {
		response.VideoCount = count
	}
	return response, nil
}

func (s *subjectService) Create(ctx context.Context, professorID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	subject := models.Subject{
		ProfessorID: professorID,
		Name:        strings.TrimSpace(req.Name),
		Description: s.sanitizer.Sanitize(req.Description),
		Color:       strings.TrimSpace(req.Color),
		Position:    req.Position,
		IsActive:    true,
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", subject.ID).Uint("professor_id", professorID).Msg("subject created")
	return dto.SubjectFromModel(subject), nil
}

func (s *subjectService) Update(ctx context.Context, professorID, id uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	subject, err := s.subjects.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubjectResponse{}, ErrSubjectNotFound
	}
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	if req.Name != nil {
		subject.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		subject.Description = s.sanitizer.Sanitize(*req.Description)
	}
	if req.Color != nil {
		subject.Color = strings.TrimSpace(*req.Color)
	}
	if req.Position != nil {
		subject.Position = *req.Position
	}
	if req.IsActive != nil {
		subject.IsActive = *req.IsActive
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.SubjectFromModel(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, professorID, id uint) error {
	subject, err := s.subjects.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubjectNotFound
	}
	if err != nil {
		return err
	}

	count, err := s.videos.CountBySubject(ctx, subject.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSubjectHasVideos
	}

	if err := s.subjects.Delete(ctx, professorID, id); err != nil {
		return err
	}

	s.logger.Info().Uint("subject_id", id).Uint("professor_id", professorID).Msg("subject deleted")
	return nil
}
