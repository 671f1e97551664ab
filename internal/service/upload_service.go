package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/models"
	"github.com/aulavid/aulavid-api/internal/observability"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

// Upload orchestration failures surfaced to the handler.
var (
	ErrUploadTooLarge       = errors.New("file exceeds the 2GB upload limit")
	ErrUploadTypeNotAllowed = errors.New("only video files can be uploaded")
	ErrUploadNotFound       = errors.New("upload not found")
	ErrUploadFailed         = errors.New("upload failed at the provider")
	ErrAssetFailed          = errors.New("asset processing failed at the provider")
)

// Confirm deadlines scale with the declared file size: big files keep the
// provider busy longer before the upload record settles.
const (
	confirmTimeoutSmall   = 10 * time.Second
	confirmTimeoutLarge   = 30 * time.Second
	confirmLargeThreshold = 100 * 1024 * 1024
)

// UploadService orchestrates browser direct uploads: the server hands out
// the provider URL and persists the pending record, but file bytes never
// transit it.
type UploadService interface {
	CreateUpload(ctx context.Context, professorID uint, req dto.UploadCreateRequest) (dto.UploadCreateResponse, error)
	ConfirmUpload(ctx context.Context, professorID uint, uploadID string, req dto.UploadConfirmRequest) (models.Video, error)
}

type uploadService struct {
	videos    repository.VideoRepository
	subjects  repository.SubjectRepository
	provider  VideoProvider
	events    VideoEventPublisher
	maxBytes  int64
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewUploadService constructs the upload orchestrator.
func NewUploadService(
	videos repository.VideoRepository,
	subjects repository.SubjectRepository,
	provider VideoProvider,
	events VideoEventPublisher,
	maxBytes int64,
	logger zerolog.Logger,
) UploadService {
	if maxBytes <= 0 {
		maxBytes = 2 * 1024 * 1024 * 1024
	}
	return &uploadService{
		videos:    videos,
		subjects:  subjects,
		provider:  provider,
		events:    events,
		maxBytes:  maxBytes,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "upload_service").Logger(),
		tracer:    otel.Tracer("github.com/aulavid/aulavid-api/internal/service/upload"),
	}
}

func (s *uploadService) CreateUpload(ctx context.Context, professorID uint, req dto.UploadCreateRequest) (dto.UploadCreateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.create", trace.WithAttributes(
		attribute.Int64("upload.size", req.Size),
		attribute.String("upload.type", req.Type),
	))
	defer span.End()

	if req.Size > s.maxBytes {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return dto.UploadCreateResponse{}, ErrUploadTooLarge
	}

	if !isVideoMime(req.Type) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		return dto.UploadCreateResponse{}, ErrUploadTypeNotAllowed
	}

	if _, err := s.subjects.GetOwned(ctx, professorID, req.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.UploadRejected().WithLabelValues("subject").Inc()
			return dto.UploadCreateResponse{}, ErrSubjectNotFound
		}
		return dto.UploadCreateResponse{}, err
	}

	upload, err := s.provider.CreateDirectUpload(ctx)
	if err != nil {
		observability.UploadRequests().WithLabelValues("provider_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		return dto.UploadCreateResponse{}, err
	}

	observability.UploadRequests().WithLabelValues("created").Inc()
	span.SetAttributes(attribute.String("upload.id", upload.ID))

	return dto.UploadCreateResponse{
		UploadID:  upload.ID,
		UploadURL: upload.URL,
	}, nil
}

func (s *uploadService) ConfirmUpload(ctx context.Context, professorID uint, uploadID string, req dto.UploadConfirmRequest) (models.Video, error) {
	ctx, span := s.tracer.Start(ctx, "upload.confirm", trace.WithAttributes(
		attribute.String("upload.id", uploadID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(uploadID) == "" {
		return models.Video{}, ErrUploadNotFound
	}

	subject, err := s.subjects.GetOwned(ctx, professorID, req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Video{}, ErrSubjectNotFound
		}
		return models.Video{}, err
	}

	video := models.Video{
		ProfessorID: professorID,
		SubjectID:   subject.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: s.sanitizer.Sanitize(req.Description),
		Tags:        req.Tags,
		Status:      models.VideoStatusProcessing,
		MuxUploadID: uploadID,
		FileSize:    req.Size,
		MimeType:    strings.ToLower(strings.TrimSpace(req.MimeType)),
	}

	timeout := confirmTimeoutSmall
	if req.Size > confirmLargeThreshold {
		timeout = confirmTimeoutLarge
	}
	statusCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	upload, err := s.provider.GetUpload(statusCtx, uploadID)
	if err != nil {
		// Transient provider slowness must not fail the confirm: the
		// record is created optimistically in processing and the
		// reconciliation paths finish the job.
		s.logger.Warn().Err(err).Str("upload_id", uploadID).Msg("upload status check timed out; confirming optimistically")
		span.AddEvent("provider status check timed out")
		if createErr := s.videos.Create(ctx, &video); createErr != nil {
			return models.Video{}, createErr
		}
		observability.UploadRequests().WithLabelValues("confirmed_optimistic").Inc()
		return video, nil
	}

	switch upload.Status {
	case mux.UploadStatusErrored, mux.UploadStatusCancelled:
		observability.UploadRequests().WithLabelValues("upload_failed").Inc()
		span.SetStatus(codes.Error, "upload failed")
		return models.Video{}, ErrUploadFailed

	case mux.UploadStatusAssetCreated:
		asset, assetErr := s.provider.GetAsset(statusCtx, upload.AssetID)
		if assetErr != nil {
			// Asset lookup timed out; keep processing with the asset
			// attached and let reconciliation settle it.
			video.MuxAssetID = upload.AssetID
			break
		}
		if asset.Status == mux.AssetStatusErrored {
			observability.UploadRequests().WithLabelValues("asset_failed").Inc()
			span.SetStatus(codes.Error, "asset failed")
			return models.Video{}, ErrAssetFailed
		}
		applyAssetState(&video, asset)

	default:
		// waiting: the browser PUT has not landed yet. The webhook or a
		// poll completes the record later.
	}

	if err := s.videos.Create(ctx, &video); err != nil {
		return models.Video{}, err
	}

	observability.UploadRequests().WithLabelValues("confirmed").Inc()
	if video.Status == models.VideoStatusReady && s.events != nil {
		s.events.PublishStatus(video, ReconcileSourcePoll)
	}

	s.logger.Info().
		Uint("video_id", video.ID).
		Str("upload_id", uploadID).
		Str("status", video.Status).
		Msg("upload confirmed")

	return video, nil
}

// isVideoMime accepts any declared type that normalises under video/*.
// mimetype resolves aliases (e.g. application/mp4) to their canonical form
// before the prefix check.
func isVideoMime(declared string) bool {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" {
		return false
	}
	if resolved := mimetype.Lookup(declared); resolved != nil {
		declared = resolved.String()
	}
	return strings.HasPrefix(declared, "video/")
}
