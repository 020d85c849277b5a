package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pushpullleg/fitness-tracker/internal/config"
	"github.com/pushpullleg/fitness-tracker/internal/handler"
	"github.com/pushpullleg/fitness-tracker/internal/middleware"
	"github.com/pushpullleg/fitness-tracker/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	IngestHandler *handler.IngestHandler
	ReportHandler *handler.ReportHandler
	DigestHandler *handler.DigestHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	if deps.ReportHandler != nil {
		// aggregates.json is served both bare and under /api for dashboard
		// compatibility.
		app.Get("/aggregates.json", deps.ReportHandler.Aggregates)
		app.Get("/api/aggregates.json", deps.ReportHandler.Aggregates)
		app.Get("/api/recent", deps.ReportHandler.Recent)
	}

	if deps.IngestHandler != nil {
		triggers := app.Group("/api", middleware.RateLimit("triggers", 6, time.Minute))
		deps.IngestHandler.Register(triggers)
	}

	if deps.DigestHandler != nil {
		digest := app.Group("/api", middleware.RateLimit("digest", 2, time.Minute))
		deps.DigestHandler.Register(digest)
	}
}
