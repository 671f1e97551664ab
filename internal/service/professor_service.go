package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// ErrEmailTaken is returned when provisioning collides with an existing
// account.
var ErrEmailTaken = errors.New("email already registered")

// ProfessorService provisions and lists professor accounts. All operations
// sit behind the superuser token.
type ProfessorService interface {
	List(ctx context.Context) ([]dto.ProfessorResponse, error)
	Create(ctx context.Context, req dto.ProfessorCreateRequest) (dto.ProfessorResponse, error)
}

type professorService struct {
	professors repository.ProfessorRepository
	logger     zerolog.Logger
}

// NewProfessorService constructs the account provisioning service.
func NewProfessorService(professors repository.ProfessorRepository, logger zerolog.Logger) ProfessorService {
	return &professorService{
		professors: professors,
		logger:     logger.With().Str("component", "professor_service").Logger(),
	}
}

func (s *professorService) List(ctx context.Context) ([]dto.ProfessorResponse, error) {
	professors, err := s.professors.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ProfessorResponse, 0, len(professors))
	for _, professor := range professors {
		responses = append(responses, dto.ProfessorFromModel(professor))
	}
	return responses, nil
}

func (s *professorService) Create(ctx context.Context, req dto.ProfessorCreateRequest) (dto.ProfessorResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.professors.GetByEmail(ctx, email); err == nil {
		return dto.ProfessorResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfessorResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.ProfessorResponse{}, err
	}

	professor := models.Professor{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.professors.Create(ctx, &professor); err != nil {
		return dto.ProfessorResponse{}, err
	}

	s.logger.Info().Uint("professor_id", professor.ID).Msg("professor account provisioned")
	return dto.ProfessorFromModel(professor), nil
}
