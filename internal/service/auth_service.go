package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/middleware"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// Professor authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

const (
	professorAccessTTL  = 1 * time.Hour
	professorRefreshTTL = 7 * 24 * time.Hour
)

// AuthService authenticates professors and rotates their token pairs.
type AuthService interface {
	Login(ctx context.Context, req dto.ProfessorLoginRequest) (dto.ProfessorLoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (dto.ProfessorRefreshResponse, error)
}

type authService struct {
	professors    repository.ProfessorRepository
	jwtSecret     string
	refreshSecret string
	logger        zerolog.Logger
}

// NewAuthService constructs the professor authentication service.
func NewAuthService(professors repository.ProfessorRepository, jwtSecret, refreshSecret string, logger zerolog.Logger) AuthService {
	return &authService{
		professors:    professors,
		jwtSecret:     jwtSecret,
		refreshSecret: refreshSecret,
		logger:        logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, req dto.ProfessorLoginRequest) (dto.ProfessorLoginResponse, error) {
	professor, err := s.professors.GetByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfessorLoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.ProfessorLoginResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(professor.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Warn().Uint("professor_id", professor.ID).Msg("login rejected")
		return dto.ProfessorLoginResponse{}, ErrInvalidCredentials
	}

	if !professor.IsActive {
		return dto.ProfessorLoginResponse{}, ErrAccountDisabled
	}

	access, err := middleware.IssueToken(s.jwtSecret, professor.ID, middleware.RoleProfessor, "", "", professorAccessTTL)
	if err != nil {
		return dto.ProfessorLoginResponse{}, err
	}

	refresh, err := middleware.IssueToken(s.refreshSecret, professor.ID, middleware.RoleProfessor, "", "", professorRefreshTTL)
	if err != nil {
		return dto.ProfessorLoginResponse{}, err
	}

	s.logger.Info().Uint("professor_id", professor.ID).Msg("professor logged in")
	return dto.ProfessorLoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Professor:    dto.ProfessorFromModel(professor),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (dto.ProfessorRefreshResponse, error) {
	claims, err := middleware.ParseToken(s.refreshSecret, refreshToken)
	if err != nil || claims.Role != middleware.RoleProfessor {
		return dto.ProfessorRefreshResponse{}, ErrInvalidRefresh
	}

	var professorID uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &professorID); err != nil || professorID == 0 {
		return dto.ProfessorRefreshResponse{}, ErrInvalidRefresh
	}

	professor, err := s.professors.GetByID(ctx, professorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfessorRefreshResponse{}, ErrInvalidRefresh
	}
	if err != nil {
		return dto.ProfessorRefreshResponse{}, err
	}

	if !professor.IsActive {
		return dto.ProfessorRefreshResponse{}, ErrAccountDisabled
	}

	access, err := middleware.IssueToken(s.jwtSecret, professor.ID, middleware.RoleProfessor, "", "", professorAccessTTL)
	if err != nil {
		return dto.ProfessorRefreshResponse{}, err
	}

	return dto.ProfessorRefreshResponse{AccessToken: access}, nil
}
