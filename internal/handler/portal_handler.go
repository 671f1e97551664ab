package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
)

// PortalHandler serves the student-facing read endpoints.
type PortalHandler struct {
	service service.PortalService
	logger  zerolog.Logger
}

// NewPortalHandler constructs the handler.
func NewPortalHandler(service service.PortalService, logger zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		service: service,
		logger:  logger.With().Str("component", "portal_handler").Logger(),
	}
}

// Register attaches routes.
func (h *PortalHandler) Register(router fiber.Router) {
	router.Get("/videos", h.catalog)
	router.Get("/videos/:id", h.videoDetail)
}

func (h *PortalHandler) catalog(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	result, err := h.service.Catalog(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			return utils.SendError(c, fiber.StatusForbidden, "access revoked")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to load catalog")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load catalog")
	}

	return utils.SendSuccess(c, "catalog retrieved", result)
}

func (h *PortalHandler) videoDetail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	studentID := userIDFromContext(c)
	video, err := h.service.VideoDetail(c.Context(), studentID, id, c.IP(), deviceIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "access revoked")
		case errors.Is(err, service.ErrPortalVideoNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "video not available")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("video_id", id).Msg("failed to load video")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load video")
		}
	}

	return utils.SendSuccess(c, "video retrieved", video)
}
