package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

func newStudentFixture(t *testing.T) (StudentService, *gorm.DB, models.Professor, models.Subject) {
	t.Helper()
	db := setupTestDB(t)
	professor := seedProfessor(t, db)
	subject := seedSubject(t, db, professor.ID)

	svc := NewStudentService(repository.NewStudentRepository(db), repository.NewSubjectRepository(db), zerolog.Nop())
	return svc, db, professor, subject
}

func TestStudentCreateGeneratesCode(t *testing.T) {
	svc, _, professor, subject := newStudentFixture(t)

	student, err := svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{
		Name:            "Sam Doe",
		AllowedSubjects: []uint{subject.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, student.Code)
	require.True(t, student.Authorized)
	require.Equal(t, []uint{subject.ID}, student.AllowedSubjects)
}

func TestStudentCreateRejectsDuplicateCode(t *testing.T) {
	svc, _, professor, _ := newStudentFixture(t)

	_, err := svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{Name: "Sam Doe", Code: "med-201"})
	require.NoError(t, err)

	// Codes normalise to uppercase, so the lowercase variant collides.
	_, err = svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{Name: "Ana Roe", Code: "MED-201"})
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestStudentCreateAllowsSameCodeAcrossProfessors(t *testing.T) {
	svc, db, professor, _ := newStudentFixture(t)

	other := models.Professor{Name: "Prof Chen", Email: "chen-roster@example.edu", IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	_, err := svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{Name: "Sam Doe", Code: "MED-202"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), other.ID, dto.StudentCreateRequest{Name: "Ana Roe", Code: "MED-202"})
	require.NoError(t, err)
}

func TestStudentCreateValidatesSubjectOwnership(t *testing.T) {
	svc, db, professor, _ := newStudentFixture(t)

	other := models.Professor{Name: "Prof Chen", Email: "chen-subjects@example.edu", IsActive: true}
	require.NoError(t, db.Create(&other).Error)
	foreign := seedSubject(t, db, other.ID)

	_, err := svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{
		Name:            "Sam Doe",
		AllowedSubjects: []uint{foreign.ID},
	})
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestStudentUpdateGrantsAreUnions(t *testing.T) {
	svc, db, professor, subject := newStudentFixture(t)
	second := models.Subject{ProfessorID: professor.ID, Name: "Calculus", IsActive: true}
	require.NoError(t, db.Create(&second).Error)

	created, err := svc.Create(context.Background(), professor.ID, dto.StudentCreateRequest{
		Name:            "Sam Doe",
		AllowedSubjects: []uint{subject.ID},
	})
	require.NoError(t, err)

	// Granting only the second subject keeps the first.
	updated, err := svc.Update(context.Background(), professor.ID, created.ID, dto.StudentUpdateRequest{
		AllowedSubjects: []uint{second.ID},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{subject.ID, second.ID}, updated.AllowedSubjects)
}

func TestStudentUpdateResetDevice(t *testing.T) {
	svc, db, professor, subject := newStudentFixture(t)
	student := seedStudent(t, db, professor.ID, "MED-203", []uint{subject.ID})

	access := NewAccessService(
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewAccessLogRepository(db),
		"test-secret",
		zerolog.Nop(),
	)
	_, err := access.Verify(context.Background(), dto.StudentVerifyRequest{Code: "MED-203", DeviceID: "fp-A"}, "1.2.3.4")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), professor.ID, student.ID, dto.StudentUpdateRequest{ResetDevice: true})
	require.NoError(t, err)
	require.False(t, updated.DeviceBound)

	// The next verify binds fresh.
	result, err := access.Verify(context.Background(), dto.StudentVerifyRequest{Code: "MED-203", DeviceID: "fp-B"}, "9.9.9.9")
	require.NoError(t, err)
	require.True(t, result.Allowed)
}

func TestStudentDeleteScopedToOwner(t *testing.T) {
	svc, db, professor, subject := newStudentFixture(t)
	student := seedStudent(t, db, professor.ID, "MED-204", []uint{subject.ID})

	require.ErrorIs(t, svc.Delete(context.Background(), professor.ID+1, student.ID), ErrStudentNotFound)
	require.NoError(t, svc.Delete(context.Background(), professor.ID, student.ID))
}
