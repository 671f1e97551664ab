package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/database"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedProfessor(t *testing.T, db *gorm.DB) models.Professor {
	t.Helper()
	professor := models.Professor{
		Name:     "Prof Rivera",
		Email:    fmt.Sprintf("rivera+%s@example.edu", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))),
		IsActive: true,
	}
	require.NoError(t, db.Create(&professor).Error)
	return professor
}

func seedSubject(t *testing.T, db *gorm.DB, professorID uint) models.Subject {
	t.Helper()
	subject := models.Subject{
		ProfessorID: professorID,
		Name:        "Linear Algebra",
		IsActive:    true,
	}
	require.NoError(t, db.Create(&subject).Error)
	return subject
}

// providerStub returns canned upload/asset states and records deletions.
type providerStub struct {
	upload    mux.Upload
	uploadErr error
	asset     mux.Asset
	assetErr  error
	deleted   []string
}

func (p *providerStub) CreateDirectUpload(ctx context.Context) (mux.Upload, error) {
	return p.upload, p.uploadErr
}

func (p *providerStub) GetUpload(ctx context.Context, uploadID string) (mux.Upload, error) {
	return p.upload, p.uploadErr
}

func (p *providerStub) GetAsset(ctx context.Context, assetID string) (mux.Asset, error) {
	return p.asset, p.assetErr
}

func (p *providerStub) DeleteAsset(ctx context.Context, assetID string) error {
	p.deleted = append(p.deleted, assetID)
	return nil
}

type eventsStub struct {
	published []models.Video
}

func (e *eventsStub) PublishStatus(video models.Video, source string) {
	e.published = append(e.published, video)
}
