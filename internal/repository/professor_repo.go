package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/models"
)

// ProfessorRepository persists professor accounts.
type ProfessorRepository interface {
	List(ctx context.Context) ([]models.Professor, error)
	GetByID(ctx context.Context, id uint) (models.Professor, error)
	GetByEmail(ctx context.Context, email string) (models.Professor, error)
	Create(ctx context.Context, professor *models.Professor) error
	Update(ctx context.Context, professor *models.Professor) error
}

type professorRepository struct {
	db *gorm.DB
}

// NewProfessorRepository constructs a professor repository.
func NewProfessorRepository(db *gorm.DB) ProfessorRepository {
	return &professorRepository{db: db}
}

func (r *professorRepository) List(ctx context.Context) ([]models.Professor, error) {
	var professors []models.Professor
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&professors).Error
	return professors, err
}

func (r *professorRepository) GetByID(ctx context.Context, id uint) (models.Professor, error) {
	var professor models.Professor
	err := r.db.WithContext(ctx).First(&professor, id).Error
	return professor, err
}

func (r *professorRepository) GetByEmail(ctx context.Context, email string) (models.Professor, error) {
	var professor models.Professor
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&professor).Error
	return professor, err
}

func (r *professorRepository) Create(ctx context.Context, professor *models.Professor) error {
	return r.db.WithContext(ctx).Create(professor).Error
}

func (r *professorRepository) Update(ctx context.Context, professor *models.Professor) error {
	return r.db.WithContext(ctx).Save(professor).Error
}
