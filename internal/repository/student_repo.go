package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/models"
)

// StudentRepository persists student roster entries. Codes are looked up
// across every professor through the code index; a cross-professor
// collision resolves to the oldest enrolment.
type StudentRepository interface {
	ListByProfessor(ctx context.Context, professorID uint) ([]models.Student, error)
	GetOwned(ctx context.Context, professorID, id uint) (models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	FindByCode(ctx context.Context, code string) (models.Student, error)
	FindOwnedByCode(ctx context.Context, professorID uint, code string) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, professorID, id uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) ListByProfessor(ctx context.Context, professorID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Order("enrolled_at ASC, id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepository) GetOwned(ctx context.Context, professorID, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		First(&student, id).Error
	return student, err
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).First(&student, id).Error
	return student, err
}

func (r *studentRepository) FindByCode(ctx context.Context, code string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("code = ?", normalizeCode(code)).
		Order("enrolled_at ASC, id ASC").
		First(&student).Error
	return student, err
}

func (r *studentRepository) FindOwnedByCode(ctx context.Context, professorID uint, code string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("professor_id = ? AND code = ?", professorID, normalizeCode(code)).
		First(&student).Error
	return student, err
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	student.Code = normalizeCode(student.Code)
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	student.Code = normalizeCode(student.Code)
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, professorID, id uint) error {
	return r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Delete(&models.Student{}, id).Error
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
