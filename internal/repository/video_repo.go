package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/models"
)

// VideoFilter narrows video listings.
type VideoFilter struct {
	SubjectID  uint
	SubjectIDs []uint
	Status     string
	Search     string
	OnlyActive bool
}

// VideoRepository persists lesson videos. Asset and upload identifiers are
// indexed so reconciliation resolves a webhook to its video with a single
// lookup instead of walking every professor's subtree.
type VideoRepository interface {
	ListByProfessor(ctx context.Context, professorID uint, filter VideoFilter) ([]models.Video, error)
	ListByFilter(ctx context.Context, filter VideoFilter) ([]models.Video, error)
	GetOwned(ctx context.Context, professorID, id uint) (models.Video, error)
	GetByID(ctx context.Context, id uint) (models.Video, error)
	GetByAssetID(ctx context.Context, assetID string) (models.Video, error)
	GetByUploadID(ctx context.Context, uploadID string) (models.Video, error)
	ListProcessingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Video, error)
	CountBySubject(ctx context.Context, subjectID uint) (int64, error)
	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, professorID, id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository constructs a video repository.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) ListByProfessor(ctx context.Context, professorID uint, filter VideoFilter) ([]models.Video, error) {
	query := r.db.WithContext(ctx).Where("professor_id = ?", professorID)
	return findVideos(applyVideoFilter(query, filter))
}

func (r *videoRepository) ListByFilter(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	return findVideos(applyVideoFilter(r.db.WithContext(ctx).Model(&models.Video{}), filter))
}

func (r *videoRepository) GetOwned(ctx context.Context, professorID, id uint) (models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		First(&video, id).Error
	return video, err
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).First(&video, id).Error
	return video, err
}

func (r *videoRepository) GetByAssetID(ctx context.Context, assetID string) (models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).
		Where("mux_asset_id = ?", assetID).
		First(&video).Error
	return video, err
}

func (r *videoRepository) GetByUploadID(ctx context.Context, uploadID string) (models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).
		Where("mux_upload_id = ?", uploadID).
		Order("created_at ASC").
		First(&video).Error
	return video, err
}

func (r *videoRepository) ListProcessingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.VideoStatusProcessing, cutoff).
		Order("created_at ASC").
		Find(&videos).Error
	return videos, err
}

func (r *videoRepository) CountBySubject(ctx context.Context, subjectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("subject_id = ?", subjectID).
		Count(&count).Error
	return count, err
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Save(video).Error
}

func (r *videoRepository) Delete(ctx context.Context, professorID, id uint) error {
	return r.db.WithContext(ctx).
		Where("professor_id = ?", professorID).
		Delete(&models.Video{}, id).Error
}

func applyVideoFilter(query *gorm.DB, filter VideoFilter) *gorm.DB {
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if len(filter.SubjectIDs) > 0 {
		query = query.Where("subject_id IN ?", filter.SubjectIDs)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	return query
}

func findVideos(query *gorm.DB) ([]models.Video, error) {
	var videos []models.Video
	err := query.Order("position ASC, created_at ASC").Find(&videos).Error
	return videos, err
}
