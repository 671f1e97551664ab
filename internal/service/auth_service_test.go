package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/middleware"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

func newAuthFixture(t *testing.T) (AuthService, *gorm.DB, models.Professor) {
	t.Helper()
	db := setupTestDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	professor := models.Professor{
		Name:         "Prof Rivera",
		Email:        "rivera@example.edu",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&professor).Error)

	svc := NewAuthService(repository.NewProfessorRepository(db), "access-secret", "refresh-secret", zerolog.Nop())
	return svc, db, professor
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _, professor := newAuthFixture(t)

	result, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "RIVERA@example.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, professor.ID, result.Professor.ID)

	claims, err := middleware.ParseToken("access-secret", result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, middleware.RoleProfessor, claims.Role)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "wrong horse",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "nobody@example.edu",
		Password: "correct horse",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, db, professor := newAuthFixture(t)
	require.NoError(t, db.Model(&professor).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "correct horse",
	})
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	// An access token is not a refresh token.
	_, err = svc.Refresh(context.Background(), login.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	svc, db, professor := newAuthFixture(t)

	login, err := svc.Login(context.Background(), dto.ProfessorLoginRequest{
		Email:    "rivera@example.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&professor).Update("is_active", false).Error)

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.ErrorIs(t, err, ErrAccountDisabled)
}
