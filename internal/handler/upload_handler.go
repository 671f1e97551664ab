package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
)

// UploadHandler orchestrates direct uploads for professors.
type UploadHandler struct {
	service  service.UploadService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(service service.UploadService, validate *validator.Validate, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register attaches routes.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Post("/:uploadID/confirm", h.confirm)
}

func (h *UploadHandler) create(c *fiber.Ctx) error {
	var payload dto.UploadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	result, err := h.service.CreateUpload(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUploadTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, "only video files can be uploaded")
		case errors.Is(err, service.ErrSubjectNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "subject not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create upload")
			return utils.SendError(c, fiber.StatusBadGateway, "failed to create upload")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload created", result)
}

func (h *UploadHandler) confirm(c *fiber.Ctx) error {
	uploadID := strings.TrimSpace(c.Params("uploadID"))
	if uploadID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid upload identifier")
	}
	var payload dto.UploadConfirmRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	video, err := h.service.ConfirmUpload(c.Context(), userIDFromContext(c), uploadID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubjectNotFound):
			return utils.SendError(c, fiber.StatusBadRequest, "subject not found")
		case errors.Is(err, service.ErrUploadFailed):
			return utils.SendError(c, fiber.StatusBadGateway, "upload failed before an asset was created")
		case errors.Is(err, service.ErrAssetFailed):
			return utils.SendError(c, fiber.StatusBadGateway, "video processing failed")
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("upload_id", uploadID).Msg("failed to confirm upload")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to confirm upload")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload confirmed", dto.VideoFromModel(video))
}
