package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/dto"
	"github.com/aulavid/aulavid-api/internal/observability"
	"github.com/aulavid/aulavid-api/internal/service"
	"github.com/aulavid/aulavid-api/internal/utils"
	"github.com/aulavid/aulavid-api/pkg/mux"
)

// WebhookHandler receives provider callbacks. The signature is checked over
// the raw body before any parsing happens; an empty secret disables the
// endpoint rather than accepting unsigned calls.
type WebhookHandler struct {
	reconcile service.ReconcileService
	secret    string
	logger    zerolog.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(reconcile service.ReconcileService, secret string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconcile: reconcile,
		secret:    secret,
		logger:    logger.With().Str("component", "webhook_handler").Logger(),
	}
}

// Register attaches routes.
func (h *WebhookHandler) Register(router fiber.Router) {
	router.Post("/mux", h.receive)
}

func (h *WebhookHandler) receive(c *fiber.Ctx) error {
	if h.secret == "" {
		return utils.SendError(c, fiber.StatusNotImplemented, "webhooks are not configured")
	}

	body := c.Body()
	signature := c.Get("mux-signature")
	if err := mux.VerifyWebhookSignature(body, signature, h.secret, mux.DefaultSignatureTolerance); err != nil {
		observability.WebhookEvents().WithLabelValues("unknown", "rejected").Inc()
		requestLogger(h.logger, c).Warn().Err(err).Msg("webhook signature rejected")
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid signature")
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		observability.WebhookEvents().WithLabelValues("unknown", "malformed").Inc()
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Per-event outcomes are counted inside the reconcile service; only the
	// failures it never sees are counted here.
	if err := h.reconcile.HandleWebhookEvent(c.Context(), event); err != nil {
		if errors.Is(err, service.ErrUnknownEventType) {
			// Unhandled types are acknowledged so the provider stops retrying.
			return utils.SendSuccess(c, "event ignored", nil)
		}
		requestLogger(h.logger, c).Error().Err(err).Str("event_type", event.Type).Msg("webhook processing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "event processing failed")
	}

	return utils.SendSuccess(c, "event processed", nil)
}
