package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/middleware"
	"github.com/pushpullleg/fitness-tracker/internal/service"
	"github.com/pushpullleg/fitness-tracker/internal/utils"
)

// IngestHandler exposes the poll cycle triggers.
type IngestHandler struct {
	service        service.IngestService
	webhookTimeout time.Duration
	logger         zerolog.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(svc service.IngestService, webhookTimeout time.Duration, logger zerolog.Logger) *IngestHandler {
	if webhookTimeout <= 0 {
		webhookTimeout = 2 * time.Minute
	}

	return &IngestHandler{
		service:        svc,
		webhookTimeout: webhookTimeout,
		logger:         logger.With().Str("component", "ingest_handler").Logger(),
	}
}

// Register wires the trigger routes. Refresh accepts GET as well as POST so
// the cycle can be triggered from a browser or a bare curl.
func (h *IngestHandler) Register(router fiber.Router) {
	router.Post("/refresh", h.refresh)
	router.Get("/refresh", h.refresh)
	router.Post("/webhook", h.webhook)
}

func (h *IngestHandler) refresh(c *fiber.Ctx) error {
	result, err := h.service.RunCycle(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("poll cycle failed to run")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to refresh activity data")
	}

	return utils.SendSuccess(c, "activity data refreshed", result)
}

// webhook acknowledges immediately and runs the cycle in the background: the
// sender enforces a short delivery deadline, and the cycle result is not for
// them anyway.
func (h *IngestHandler) webhook(c *fiber.Ctx) error {
	correlationID := middleware.GetCorrelationID(c)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.webhookTimeout)
		defer cancel()
		ctx = middleware.ContextWithCorrelation(ctx, correlationID)

		if _, err := h.service.RunCycle(ctx); err != nil {
			h.logger.Error().Err(err).Str("correlation_id", correlationID).Msg("webhook-triggered cycle failed")
		}
	}()

	return utils.SendAccepted(c, "webhook received, processing in background")
}
