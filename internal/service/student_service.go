package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
)

// Roster operation failures.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrCodeTaken       = errors.New("student code already in use")
)

// StudentService manages a professor's roster.
type StudentService interface {
	List(ctx context.Context, professorID uint) ([]dto.StudentResponse, error)
	Get(ctx context.Context, professorID, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, professorID uint, req dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, professorID, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, professorID, id uint) error
}

type studentService struct {
	students repository.StudentRepository
	subjects repository.SubjectRepository
	logger   zerolog.Logger
}

// NewStudentService constructs the roster service.
func NewStudentService(students repository.StudentRepository, subjects repository.SubjectRepository, logger zerolog.Logger) StudentService {
	return &studentService{
		students: students,
		subjects: subjects,
		logger:   logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, professorID uint) ([]dto.StudentResponse, error) {
	students, err := s.students.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.StudentFromModel(student))
	}
	return responses, nil
}

func (s *studentService) Get(ctx context.Context, professorID, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, ErrStudentNotFound
	}
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.StudentFromModel(student), nil
}

func (s *studentService) Create(ctx context.Context, professorID uint, req dto.StudentCreateRequest) (dto.StudentResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = generateStudentCode()
	}

	// Codes are unique inside one professor's roster. Collisions across
	// professors are possible and resolved at lookup by oldest enrolment.
	if _, err := s.students.FindOwnedByCode(ctx, professorID, code); err == nil {
		return dto.StudentResponse{}, ErrCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	if err := s.validateSubjects(ctx, professorID, req.AllowedSubjects); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		ProfessorID: professorID,
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Authorized:  true,
		EnrolledAt:  time.Now().UTC(),
	}
	student.GrantSubjects(req.AllowedSubjects)

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Uint("professor_id", professorID).Msg("student enrolled")
	return dto.StudentFromModel(student), nil
}

func (s *studentService) Update(ctx context.Context, professorID, id uint, req dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	student, err := s.students.GetOwned(ctx, professorID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, ErrStudentNotFound
	}
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Authorized != nil {
		student.Authorized = *req.Authorized
	}
	if len(req.AllowedSubjects) > 0 {
		if err := s.validateSubjects(ctx, professorID, req.AllowedSubjects); err != nil {
			return dto.StudentResponse{}, err
		}
		student.GrantSubjects(req.AllowedSubjects)
	}
	if req.ResetDevice {
		student.DeviceID = ""
		student.DeviceIP = ""
		student.BoundAt = nil
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.StudentFromModel(student), nil
}

func (s *studentService) Delete(ctx context.Context, professorID, id uint) error {
	if _, err := s.students.GetOwned(ctx, professorID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if err := s.students.Delete(ctx, professorID, id); err != nil {
		return err
	}

	s.logger.Info().Uint("student_id", id).Uint("professor_id", professorID).Msg("student removed")
	return nil
}

func (s *studentService) validateSubjects(ctx context.Context, professorID uint, ids []uint) error {
	for _, subjectID := range ids {
		if _, err := s.subjects.GetOwned(ctx, professorID, subjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubjectNotFound
			}
			return err
		}
	}
	return nil
}

func generateStudentCode() string {
	// Short, typeable, uppercase. Collision risk inside one roster is
	// handled by the uniqueness check at create time.
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("STU-%s", raw[:8])
}
