package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/repository"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
)

// VideoHandler manages the professor's video endpoints, including the
// reconciliation checks.
type VideoHandler struct {
	videos    service.VideoService
	reconcile service.ReconcileService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewVideoHandler constructs the handler.
func NewVideoHandler(videos service.VideoService, reconcile service.ReconcileService, validate *validator.Validate, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		videos:    videos,
		reconcile: reconcile,
		validate:  validate,
		logger:    logger.With().Str("component", "video_handler").Logger(),
	}
}

// Register attaches routes.
func (h *VideoHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/status/:assetID", h.statusByAsset)
	router.Post("/sweep", h.sweep)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/check", h.check)
}

func (h *VideoHandler) list(c *fiber.Ctx) error {
	subjectID, err := parseQueryInt(c, "subject_id")
	if err != nil || subjectID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
	}

	filter := repository.VideoFilter{
		SubjectID: uint(subjectID),
		Status:    strings.TrimSpace(c.Query("status")),
		Search:    strings.TrimSpace(c.Query("search")),
	}

	videos, err := h.videos.List(c.Context(), userIDFromContext(c), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list videos")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list videos")
	}

	return utils.SendSuccess(c, "videos retrieved", videos)
}

func (h *VideoHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	video, err := h.videos.Get(c.Context(), userIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("video_id", id).Msg("failed to get video")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to get video")
	}

	return utils.SendSuccess(c, "video retrieved", video)
}

func (h *VideoHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	var payload dto.VideoUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	video, err := h.videos.Update(c.Context(), userIDFromContext(c), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVideoNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		case errors.Is(err, service.ErrSubjectNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "target subject not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("video_id", id).Msg("failed to update video")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update video")
		}
	}

	return utils.SendSuccess(c, "video updated", video)
}

func (h *VideoHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.videos.Delete(c.Context(), userIDFromContext(c), id); err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("video_id", id).Msg("failed to delete video")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete video")
	}

	return utils.SendSuccess(c, "video deleted", fiber.Map{"id": id})
}

func (h *VideoHandler) check(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	video, err := h.reconcile.CheckVideo(c.Context(), userIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("video_id", id).Msg("failed to check video")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to check video")
	}

	return utils.SendSuccess(c, "video status checked", dto.VideoStatusResponse{
		VideoID:       video.ID,
		Status:        video.Status,
		IsActive:      video.IsActive,
		MuxAssetID:    video.MuxAssetID,
		MuxPlaybackID: video.MuxPlaybackID,
		ErrorMessage:  video.ErrorMessage,
		Reconciled:    video.IsTerminal(),
	})
}

func (h *VideoHandler) statusByAsset(c *fiber.Ctx) error {
	assetID := strings.TrimSpace(c.Params("assetID"))
	if assetID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid asset identifier")
	}

	video, err := h.reconcile.CheckByAssetID(c.Context(), assetID)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "video not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("asset_id", assetID).Msg("failed to check asset")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to check asset")
	}

	return utils.SendSuccess(c, "asset status checked", dto.VideoStatusResponse{
		VideoID:       video.ID,
		Status:        video.Status,
		IsActive:      video.IsActive,
		MuxAssetID:    video.MuxAssetID,
		MuxPlaybackID: video.MuxPlaybackID,
		ErrorMessage:  video.ErrorMessage,
		Reconciled:    video.IsTerminal(),
	})
}

func (h *VideoHandler) sweep(c *fiber.Ctx) error {
	updated, err := h.reconcile.SweepStale(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("stale sweep failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "stale sweep failed")
	}

	return utils.SendSuccess(c, "stale videos swept", fiber.Map{"updated": updated})
}
