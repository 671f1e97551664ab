package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/observability"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

// Webhook event types dispatched by the reconciliation engine.
const (
	EventAssetReady         = "video.asset.ready"
	EventAssetErrored       = "video.asset.errored"
	EventUploadAssetCreated = "video.upload.asset_created"
	EventUploadErrored      = "video.upload.errored"
)

// Reconciliation source labels. Both paths converge through the same
// transition function, so last-write-wins interleavings still land on the
// same terminal values.
const (
	ReconcileSourceWebhook = "webhook"
	ReconcileSourcePoll    = "poll"
	ReconcileSourceSweep   = "sweep"
)

// ErrUnknownEventType marks webhook events outside the handled set.
var ErrUnknownEventType = errors.New("unhandled webhook event type")

const pollTimeout = 10 * time.Second

// Placeholder owner for assets whose webhook arrives before (or without)
// any local record. Orphaned assets land here instead of being dropped.
const (
	placeholderProfessorEmail = "unclaimed@aulavid.internal"
	placeholderProfessorName  = "Unclaimed Uploads"
	placeholderSubjectName    = "Unclaimed"
)

// ReconcileService brings local video records into agreement with the
// provider's asset state, by webhook push and by polling pull.
type ReconcileService interface {
	HandleWebhookEvent(ctx context.Context, event dto.WebhookEvent) error
	CheckVideo(ctx context.Context, professorID, videoID uint) (models.Video, error)
	CheckByAssetID(ctx context.Context, assetID string) (models.Video, error)
	Refresh(ctx context.Context, video *models.Video, source string) bool
	SweepStale(ctx context.Context) (int, error)
}

type reconcileService struct {
	videos     repository.VideoRepository
	professors repository.ProfessorRepository
	subjects   repository.SubjectRepository
	provider   VideoProvider
	events     VideoEventPublisher
	staleAfter time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewReconcileService constructs the reconciliation engine.
func NewReconcileService(
	videos repository.VideoRepository,
	professors repository.ProfessorRepository,
	subjects repository.SubjectRepository,
	provider VideoProvider,
	events VideoEventPublisher,
	staleAfter time.Duration,
	logger zerolog.Logger,
) ReconcileService {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &reconcileService{
		videos:     videos,
		professors: professors,
		subjects:   subjects,
		provider:   provider,
		events:     events,
		staleAfter: staleAfter,
		logger:     logger.With().Str("component", "reconcile_service").Logger(),
		tracer:     otel.Tracer("github.com/aulavid/aulavid-api/internal/service/reconcile"),
	}
}

// applyAssetState folds the provider's view of an asset into the local
// record. This is the single transition function shared by the webhook,
// polling and sweep paths; ready and errored are terminal, so replaying an
// event against a settled video changes nothing.
func applyAssetState(video *models.Video, asset mux.Asset) bool {
	if video.Status == models.VideoStatusReady || video.Status == models.VideoStatusErrored {
		return false
	}

	changed := false

	if asset.ID != "" && video.MuxAssetID != asset.ID {
		video.MuxAssetID = asset.ID
		changed = true
	}

	switch asset.Status {
	case mux.AssetStatusReady:
		video.Status = models.VideoStatusReady
		video.MuxPlaybackID = asset.PlaybackID
		video.Duration = asset.Duration
		video.AspectRatio = asset.AspectRatio
		video.ErrorMessage = ""
		changed = true
	case mux.AssetStatusErrored:
		video.Status = models.VideoStatusErrored
		message := asset.ErrorText
		if message == "" {
			message = "asset processing failed"
		}
		video.ErrorMessage = message
		changed = true
	default:
		// Still preparing; keep processing. Attaching the asset ID above
		// is the only change that path can make.
		if video.Status != models.VideoStatusProcessing {
			video.Status = models.VideoStatusProcessing
			changed = true
		}
	}

	return changed
}

func (s *reconcileService) HandleWebhookEvent(ctx context.Context, event dto.WebhookEvent) error {
	ctx, span := s.tracer.Start(ctx, "reconcile.webhook", trace.WithAttributes(
		attribute.String("webhook.type", event.Type),
	))
	defer span.End()

	switch event.Type {
	case EventAssetReady, EventAssetErrored:
		return s.handleAssetEvent(ctx, event)
	case EventUploadAssetCreated:
		return s.handleUploadAssetCreated(ctx, event)
	case EventUploadErrored:
		return s.handleUploadErrored(ctx, event)
	default:
		observability.WebhookEvents().WithLabelValues(event.Type, "ignored").Inc()
		return ErrUnknownEventType
	}
}

func (s *reconcileService) handleAssetEvent(ctx context.Context, event dto.WebhookEvent) error {
	asset := assetFromWebhook(event.Data)
	if asset.Status == "" {
		// Some deliveries omit the status field; the event type is authoritative.
		if event.Type == EventAssetReady {
			asset.Status = mux.AssetStatusReady
		} else {
			asset.Status = mux.AssetStatusErrored
		}
	}

	video, err := s.locateVideo(ctx, asset.ID, event.Data.UploadID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		video, err = s.createPlaceholder(ctx, asset)
		if err != nil {
			observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
			return err
		}
	} else if err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	if !applyAssetState(&video, asset) {
		observability.WebhookEvents().WithLabelValues(event.Type, "noop").Inc()
		return nil
	}

	if err := s.videos.Update(ctx, &video); err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	s.recordTransition(video, ReconcileSourceWebhook)
	observability.WebhookEvents().WithLabelValues(event.Type, "applied").Inc()
	return nil
}

func (s *reconcileService) handleUploadAssetCreated(ctx context.Context, event dto.WebhookEvent) error {
	// For upload events the payload object is the upload itself.
	uploadID := event.Data.ID
	assetID := event.Data.AssetID
	if uploadID == "" || assetID == "" {
		observability.WebhookEvents().WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	video, err := s.videos.GetByUploadID(ctx, uploadID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		video, err = s.createPlaceholder(ctx, mux.Asset{ID: assetID, Status: mux.AssetStatusPreparing})
		if err != nil {
			observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
			return err
		}
		video.MuxUploadID = uploadID
	} else if err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	if video.MuxAssetID == assetID && video.Status != models.VideoStatusProcessing {
		observability.WebhookEvents().WithLabelValues(event.Type, "noop").Inc()
		return nil
	}

	applyAssetState(&video, mux.Asset{ID: assetID, Status: mux.AssetStatusPreparing})
	if err := s.videos.Update(ctx, &video); err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	observability.WebhookEvents().WithLabelValues(event.Type, "applied").Inc()
	return nil
}

func (s *reconcileService) handleUploadErrored(ctx context.Context, event dto.WebhookEvent) error {
	uploadID := event.Data.ID
	if uploadID == "" {
		observability.WebhookEvents().WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	video, err := s.videos.GetByUploadID(ctx, uploadID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No record was ever confirmed for this upload; nothing to mark.
		observability.WebhookEvents().WithLabelValues(event.Type, "noop").Inc()
		return nil
	}
	if err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	if video.Status == models.VideoStatusReady || video.Status == models.VideoStatusErrored {
		observability.WebhookEvents().WithLabelValues(event.Type, "noop").Inc()
		return nil
	}

	video.Status = models.VideoStatusUploadFailed
	video.ErrorMessage = "direct upload failed"
	if err := s.videos.Update(ctx, &video); err != nil {
		observability.WebhookEvents().WithLabelValues(event.Type, "error").Inc()
		return err
	}

	s.recordTransition(video, ReconcileSourceWebhook)
	observability.WebhookEvents().WithLabelValues(event.Type, "applied").Inc()
	return nil
}

func (s *reconcileService) CheckVideo(ctx context.Context, professorID, videoID uint) (models.Video, error) {
	video, err := s.videos.GetOwned(ctx, professorID, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return models.Video{}, err
	}

	s.Refresh(ctx, &video, ReconcileSourcePoll)
	return video, nil
}

func (s *reconcileService) CheckByAssetID(ctx context.Context, assetID string) (models.Video, error) {
	video, err := s.videos.GetByAssetID(ctx, assetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return models.Video{}, err
	}

	s.Refresh(ctx, &video, ReconcileSourcePoll)
	return video, nil
}

// Refresh pulls the provider's current state for a non-terminal video and
// self-heals the record. Provider timeouts are swallowed: a slow provider
// must read as "still processing", never as a request failure.
func (s *reconcileService) Refresh(ctx context.Context, video *models.Video, source string) bool {
	if video.Status == models.VideoStatusReady || video.Status == models.VideoStatusErrored {
		return false
	}

	ctx, span := s.tracer.Start(ctx, "reconcile.refresh", trace.WithAttributes(
		attribute.Int("video.id", int(video.ID)),
		attribute.String("reconcile.source", source),
	))
	defer span.End()

	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	changed := false

	if video.MuxAssetID == "" && video.MuxUploadID != "" {
		upload, err := s.provider.GetUpload(pollCtx, video.MuxUploadID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("video_id", video.ID).Msg("upload status check failed; keeping current state")
			return false
		}
		switch upload.Status {
		case mux.UploadStatusErrored, mux.UploadStatusCancelled:
			video.Status = models.VideoStatusUploadFailed
			video.ErrorMessage = "direct upload failed"
			changed = true
		case mux.UploadStatusTimedOut:
			video.Status = models.VideoStatusNoConfirm
			video.ErrorMessage = "upload window expired before any bytes arrived"
			changed = true
		case mux.UploadStatusAssetCreated:
			video.MuxAssetID = upload.AssetID
			changed = true
		}
	}

	if video.MuxAssetID != "" && video.Status == models.VideoStatusProcessing {
		asset, err := s.provider.GetAsset(pollCtx, video.MuxAssetID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("video_id", video.ID).Msg("asset status check failed; keeping current state")
		} else if applyAssetState(video, asset) {
			changed = true
		}
	}

	if !changed {
		return false
	}

	if err := s.videos.Update(ctx, video); err != nil {
		s.logger.Error().Err(err).Uint("video_id", video.ID).Msg("failed to persist reconciled state")
		return false
	}

	s.recordTransition(*video, source)
	return true
}

func (s *reconcileService) SweepStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleAfter)
	stale, err := s.videos.ListProcessingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range stale {
		if s.Refresh(ctx, &stale[i], ReconcileSourceSweep) {
			updated++
		}
	}

	if updated > 0 {
		s.logger.Info().Int("stale", len(stale)).Int("updated", updated).Msg("stale sweep reconciled videos")
	}
	return updated, nil
}

func (s *reconcileService) locateVideo(ctx context.Context, assetID, uploadID string) (models.Video, error) {
	if assetID != "" {
		video, err := s.videos.GetByAssetID(ctx, assetID)
		if err == nil {
			return video, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Video{}, err
		}
	}
	if uploadID != "" {
		return s.videos.GetByUploadID(ctx, uploadID)
	}
	return models.Video{}, gorm.ErrRecordNotFound
}

// createPlaceholder parks an unmatched asset under a reserved owner so the
// webhook is never lost to a record/notification race. The row stays
// visible for manual reassignment.
func (s *reconcileService) createPlaceholder(ctx context.Context, asset mux.Asset) (models.Video, error) {
	professor, err := s.professors.GetByEmail(ctx, placeholderProfessorEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		professor = models.Professor{
			Name:     placeholderProfessorName,
			Email:    placeholderProfessorEmail,
			IsActive: false,
		}
		if err := s.professors.Create(ctx, &professor); err != nil {
			return models.Video{}, err
		}
	} else if err != nil {
		return models.Video{}, err
	}

	subjects, err := s.subjects.ListByProfessor(ctx, professor.ID)
	if err != nil {
		return models.Video{}, err
	}

	var subject models.Subject
	for _, candidate := range subjects {
		if candidate.Name == placeholderSubjectName {
			subject = candidate
			break
		}
	}
	if subject.ID == 0 {
		subject = models.Subject{
			ProfessorID: professor.ID,
			Name:        placeholderSubjectName,
			IsActive:    false,
		}
		if err := s.subjects.Create(ctx, &subject); err != nil {
			return models.Video{}, err
		}
	}

	video := models.Video{
		ProfessorID: professor.ID,
		SubjectID:   subject.ID,
		Name:        "Recovered asset " + asset.ID,
		Status:      models.VideoStatusProcessing,
		MuxAssetID:  asset.ID,
	}
	if err := s.videos.Create(ctx, &video); err != nil {
		return models.Video{}, err
	}

	s.logger.Warn().Str("asset_id", asset.ID).Uint("video_id", video.ID).Msg("webhook arrived for unknown asset; placeholder created")
	return video, nil
}

func (s *reconcileService) recordTransition(video models.Video, source string) {
	observability.ReconcileTransitions().WithLabelValues(source, video.Status).Inc()
	if s.events != nil {
		s.events.PublishStatus(video, source)
	}
	s.logger.Info().
		Uint("video_id", video.ID).
		Str("status", video.Status).
		Str("source", source).
		Msg("video status reconciled")
}

func assetFromWebhook(data dto.WebhookEventData) mux.Asset {
	asset := mux.Asset{
		ID:          data.ID,
		Status:      data.Status,
		Duration:    data.Duration,
		AspectRatio: data.AspectRatio,
	}
	if len(data.PlaybackIDs) > 0 {
		asset.PlaybackID = data.PlaybackIDs[0].ID
	}
	if data.Errors != nil && len(data.Errors.Messages) > 0 {
		asset.ErrorText = data.Errors.Messages[0]
	}
	return asset
}
