package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
)

// LegacyHandler streams files that still live on the old origin server.
type LegacyHandler struct {
	service service.LegacyStreamService
	logger  zerolog.Logger
}

// NewLegacyHandler constructs the handler.
func NewLegacyHandler(service service.LegacyStreamService, logger zerolog.Logger) *LegacyHandler {
	return &LegacyHandler{
		service: service,
		logger:  logger.With().Str("component", "legacy_handler").Logger(),
	}
}

// Register attaches routes.
func (h *LegacyHandler) Register(router fiber.Router) {
	router.Get("/stream/:fileID", h.stream)
}

func (h *LegacyHandler) stream(c *fiber.Ctx) error {
	fileID := strings.TrimSpace(c.Params("fileID"))
	if fileID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid file identifier")
	}

	result, err := h.service.Fetch(c.Context(), fileID, c.Get("Range"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLegacyDisabled):
			return utils.SendError(c, fiber.StatusNotImplemented, "legacy streaming is not available")
		case errors.Is(err, service.ErrLegacyFileNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "file not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("file_id", fileID).Msg("legacy stream failed")
			return utils.SendError(c, fiber.StatusBadGateway, "legacy stream failed")
		}
	}

	if result.ContentType != "" {
		c.Set(fiber.HeaderContentType, result.ContentType)
	}
	if result.ContentLength != "" {
		c.Set(fiber.HeaderContentLength, result.ContentLength)
	}
	if result.ContentRange != "" {
		c.Set(fiber.HeaderContentRange, result.ContentRange)
	}
	if result.AcceptRanges != "" {
		c.Set(fiber.HeaderAcceptRanges, result.AcceptRanges)
	}

	c.Status(result.StatusCode)
	return c.SendStream(result.Body)
}
