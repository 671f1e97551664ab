package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
)

// ProfessorHandler exposes superuser account provisioning.
type ProfessorHandler struct {
	service  service.ProfessorService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewProfessorHandler constructs the handler.
func NewProfessorHandler(service service.ProfessorService, validate *validator.Validate, logger zerolog.Logger) *ProfessorHandler {
	return &ProfessorHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "professor_handler").Logger(),
	}
}

// Register attaches routes.
func (h *ProfessorHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
}

func (h *ProfessorHandler) list(c *fiber.Ctx) error {
	professors, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list professors")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list professors")
	}

	return utils.SendSuccess(c, "professors retrieved", professors)
}

func (h *ProfessorHandler) create(c *fiber.Ctx) error {
	var payload dto.ProfessorCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	professor, err := h.service.Create(c.Context(), payload)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return utils.SendError(c, fiber.StatusConflict, "email already registered")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create professor")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create professor")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "professor created", professor)
}
