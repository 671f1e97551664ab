package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/models"
)

// SubjectRepository persists subjects scoped to their owning professor.
type SubjectRepository interface {
	ListByProfessor(ctx context.Context, professorID uint) ([]models.Subject, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Subject, error)
	GetOwned(ctx context.Context, professorID, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, professorID, id uint) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) ListByProfessor(ctx context.Context, professorID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Order("position ASC, created_at ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Subject, error) {
	if len(ids) == 0 {
		return []models.Subject{}, nil
	}
	var subjects []models.Subject
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("position ASC, created_at ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepository) GetOwned(ctx context.Context, professorID, id uint) (models.Subject, error) {
	var subject models.Subject
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		First(&subject, id).Error
	return subject, err
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, professorID, id uint) error {
	return r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Delete(&models.Subject{}, id).Error
}
