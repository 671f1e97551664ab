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

// AuthHandler exposes student code verification and professor login.
type AuthHandler struct {
	access   service.AccessService
	auth     service.AuthService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthHandler constructs the authentication handler.
func NewAuthHandler(access service.AccessService, auth service.AuthService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		access:   access,
		auth:     auth,
		validate: validate,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires public authentication routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/verify", h.verify)
	router.Post("/login", h.login)
	router.Post("/token/refresh", h.professorRefresh)
}

// RegisterStudent wires the token-guarded student refresh route.
func (h *AuthHandler) RegisterStudent(router fiber.Router) {
	router.Post("/refresh", h.studentRefresh)
}

func (h *AuthHandler) verify(c *fiber.Ctx) error {
	var payload dto.StudentVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	result, err := h.access.Verify(c.Context(), payload, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound), errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid code")
		case errors.Is(err, service.ErrDeviceMismatch):
			return c.Status(fiber.StatusForbidden).JSON(utils.APIResponse{
				Success: false,
				Data:    result,
				Message: "code is already in use on another device",
			})
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("student verification failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "verification failed")
		}
	}

	return utils.SendSuccess(c, "access granted", result)
}

func (h *AuthHandler) studentRefresh(c *fiber.Ctx) error {
	var payload dto.StudentRefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	studentID := userIDFromContext(c)
	result, err := h.access.Refresh(c.Context(), studentID, payload.DeviceID, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound), errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusUnauthorized, "session no longer valid")
		case errors.Is(err, service.ErrDeviceMismatch):
			return utils.SendError(c, fiber.StatusForbidden, "code is already in use on another device")
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("student refresh failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "refresh failed")
		}
	}

	return utils.SendSuccess(c, "session refreshed", result)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.ProfessorLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	result, err := h.auth.Login(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "account disabled")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("professor login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) professorRefresh(c *fiber.Ctx) error {
	var payload dto.ProfessorRefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validate.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	result, err := h.auth.Refresh(c.Context(), payload.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrAccountDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "account disabled")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("token refresh failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "refresh failed")
		}
	}

	return utils.SendSuccess(c, "token refreshed", result)
}
