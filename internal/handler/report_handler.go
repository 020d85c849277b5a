package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/service"
	"github.com/pushpullleg/fitness-tracker/internal/utils"
)

// ReportHandler serves the read-only aggregate views.
type ReportHandler struct {
	service service.AggregateService
	logger  zerolog.Logger
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc service.AggregateService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Aggregates serves the member totals and overall total.
func (h *ReportHandler) Aggregates(c *fiber.Ctx) error {
	response, err := h.service.Aggregates(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build aggregates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch aggregates")
	}

	// Served as a bare document, not the envelope: the dashboard consumes
	// aggregates.json directly.
	return c.JSON(response)
}

// Recent serves the most recent activities, newest first.
func (h *ReportHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit")

	response, err := h.service.Recent(c.UserContext(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list recent activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch recent activities")
	}

	return c.JSON(response)
}
