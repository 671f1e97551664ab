package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

func newVideoFixture(t *testing.T, provider *providerStub) (VideoService, repository.VideoRepository, models.Professor, models.Subject) {
	t.Helper()
	db := setupTestDB(t)
	professor := seedProfessor(t, db)
	subject := seedSubject(t, db, professor.ID)

	videos := repository.NewVideoRepository(db)
	subjects := repository.NewSubjectRepository(db)
	reconcile := NewReconcileService(videos, repository.NewProfessorRepository(db), subjects, provider, &eventsStub{}, time.Hour, zerolog.Nop())
	svc := NewVideoService(videos, subjects, provider, reconcile, zerolog.Nop())
	return svc, videos, professor, subject
}

func TestVideoGetLazilyReconciles(t *testing.T) {
	provider := &providerStub{
		asset: mux.Asset{ID: "asset-1", Status: mux.AssetStatusReady, PlaybackID: "play-1"},
	}
	svc, videos, professor, subject := newVideoFixture(t, provider)

	video := models.Video{
		ProfessorID: professor.ID,
		SubjectID:   subject.ID,
		Name:        "Cardiac cycle",
		Status:      models.VideoStatusProcessing,
		MuxAssetID:  "asset-1",
	}
	require.NoError(t, videos.Create(context.Background(), &video))

	got, err := svc.Get(context.Background(), professor.ID, video.ID)
	require.NoError(t, err)
	require.Equal(t, models.VideoStatusReady, got.Status)
	require.Equal(t, "play-1", got.MuxPlaybackID)
}

func TestVideoUpdateRejectsForeignSubjectMove(t *testing.T) {
	svc, videos, professor, subject := newVideoFixture(t, &providerStub{})

	video := models.Video{
		ProfessorID: professor.ID,
		SubjectID:   subject.ID,
		Name:        "Cardiac cycle",
		Status:      models.VideoStatusReady,
	}
	require.NoError(t, videos.Create(context.Background(), &video))

	foreign := uint(9999)
	_, err := svc.Update(context.Background(), professor.ID, video.ID, dto.VideoUpdateRequest{SubjectID: &foreign})
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestVideoDeleteRemovesRemoteAsset(t *testing.T) {
	provider := &providerStub{}
	svc, videos, professor, subject := newVideoFixture(t, provider)

	video := models.Video{
		ProfessorID: professor.ID,
		SubjectID:   subject.ID,
		Name:        "Cardiac cycle",
		Status:      models.VideoStatusReady,
		MuxAssetID:  "asset-7",
	}
	require.NoError(t, videos.Create(context.Background(), &video))

	require.NoError(t, svc.Delete(context.Background(), professor.ID, video.ID))
	require.Equal(t, []string{"asset-7"}, provider.deleted)

	_, err := videos.GetByID(context.Background(), video.ID)
	require.Error(t, err)
}

func TestVideoListFilters(t *testing.T) {
	svc, videos, professor, subject := newVideoFixture(t, &providerStub{})

	ready := models.Video{ProfessorID: professor.ID, SubjectID: subject.ID, Name: "Ready one", Status: models.VideoStatusReady}
	processing := models.Video{ProfessorID: professor.ID, SubjectID: subject.ID, Name: "Still cooking", Status: models.VideoStatusProcessing}
	require.NoError(t, videos.Create(context.Background(), &ready))
	require.NoError(t, videos.Create(context.Background(), &processing))

	list, err := svc.List(context.Background(), professor.ID, repository.VideoFilter{Status: models.VideoStatusReady})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Ready one", list[0].Name)

	list, err = svc.List(context.Background(), professor.ID, repository.VideoFilter{Search: "cooking"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Still cooking", list[0].Name)
}
