package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/models"
)

// AccessLogRepository persists the student access ledger.
type AccessLogRepository interface {
	Create(ctx context.Context, entry *models.AccessLog) error
	ListByStudent(ctx context.Context, studentID uint, limit int) ([]models.AccessLog, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

// NewAccessLogRepository constructs an access log repository.
func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *accessLogRepository) ListByStudent(ctx context.Context, studentID uint, limit int) ([]models.AccessLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AccessLog
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
