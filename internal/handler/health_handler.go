package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pushpullleg/fitness-tracker/internal/config"
	"github.com/pushpullleg/fitness-tracker/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Sources     int       `json:"sources"`
	Database    bool      `json:"database_configured"`
	SMS         bool      `json:"sms_configured"`
	Email       bool      `json:"email_configured"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "healthy",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Sources:     len(cfg.Sources),
			Database:    cfg.DatabaseURL != "",
			SMS:         cfg.SMSConfigured(),
			Email:       cfg.EmailConfigured(),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
