package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/service"
	"github.com/pushpullleg/fitness-tracker/internal/utils"
)

// DigestHandler exposes the email digest triggers.
type DigestHandler struct {
	service service.DigestService
	logger  zerolog.Logger
}

// NewDigestHandler constructs a digest handler.
func NewDigestHandler(svc service.DigestService, logger zerolog.Logger) *DigestHandler {
	return &DigestHandler{
		service: svc,
		logger:  logger.With().Str("component", "digest_handler").Logger(),
	}
}

// Register wires the digest routes.
func (h *DigestHandler) Register(router fiber.Router) {
	router.Post("/send-digest", h.send(false))
	router.Get("/send-digest", h.send(false))
	router.Get("/test-digest", h.send(true))
}

func (h *DigestHandler) send(testOnly bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := h.service.SendDigest(c.UserContext(), testOnly)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailNotConfigured):
				return utils.SendError(c, fiber.StatusInternalServerError, "email delivery is not configured")
			case errors.Is(err, service.ErrNoRecipients):
				return utils.SendError(c, fiber.StatusInternalServerError, "no email recipients configured")
			default:
				h.logger.Error().Err(err).Msg("failed to send digest")
				return utils.SendError(c, fiber.StatusInternalServerError, "failed to send email digest")
			}
		}

		message := "email digest sent successfully"
		if testOnly {
			message = "test email digest sent successfully"
		}

		return utils.SendSuccess(c, message, result)
	}
}
