package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/database"
	"github.com/aulavid/aulavid-api/internal/models"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestVideoRepositoryResolvesWebhookIdentifiers(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	settled := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Settled", Status: models.VideoStatusReady, MuxUploadID: "up-1", MuxAssetID: "asset-1"}
	pending := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Pending", Status: models.VideoStatusProcessing, MuxUploadID: "up-2"}
	require.NoError(t, repo.Create(ctx, &settled))
	require.NoError(t, repo.Create(ctx, &pending))

	byAsset, err := repo.GetByAssetID(ctx, "asset-1")
	require.NoError(t, err)
	require.Equal(t, settled.ID, byAsset.ID)

	byUpload, err := repo.GetByUploadID(ctx, "up-2")
	require.NoError(t, err)
	require.Equal(t, pending.ID, byUpload.ID)

	_, err = repo.GetByAssetID(ctx, "asset-missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVideoRepositoryListProcessingOlderThan(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	stale := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Stale", Status: models.VideoStatusProcessing, MuxUploadID: "up-stale"}
	fresh := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Fresh", Status: models.VideoStatusProcessing, MuxUploadID: "up-fresh"}
	done := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Done", Status: models.VideoStatusReady, MuxAssetID: "asset-done"}
	require.NoError(t, repo.Create(ctx, &stale))
	require.NoError(t, repo.Create(ctx, &fresh))
	require.NoError(t, repo.Create(ctx, &done))

	aged := time.Now().Add(-3 * time.Hour)
	require.NoError(t, db.Model(&models.Video{}).Where("id IN ?", []uint{stale.ID, done.ID}).Update("created_at", aged).Error)

	videos, err := repo.ListProcessingOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Equal(t, stale.ID, videos[0].ID)
}

func TestVideoRepositoryDerivesActiveFromStatus(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewVideoRepository(db)
	ctx := context.Background()

	video := models.Video{ProfessorID: 1, SubjectID: 1, Name: "Lecture", Status: models.VideoStatusProcessing, IsActive: true, Tags: []string{"week-1"}}
	require.NoError(t, repo.Create(ctx, &video))

	stored, err := repo.GetByID(ctx, video.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive, "a processing video must not surface as active")
	require.Equal(t, []string{"week-1"}, stored.Tags)

	stored.Status = models.VideoStatusReady
	require.NoError(t, repo.Update(ctx, &stored))

	stored, err = repo.GetByID(ctx, video.ID)
	require.NoError(t, err)
	require.True(t, stored.IsActive)
}
