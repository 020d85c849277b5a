package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/config"
	"github.com/pushpullleg/fitness-tracker/internal/database"
	"github.com/pushpullleg/fitness-tracker/internal/handler"
	"github.com/pushpullleg/fitness-tracker/internal/middleware"
	"github.com/pushpullleg/fitness-tracker/internal/models"
	"github.com/pushpullleg/fitness-tracker/internal/repository"
	"github.com/pushpullleg/fitness-tracker/internal/router"
	"github.com/pushpullleg/fitness-tracker/internal/service"
	sgmail "github.com/pushpullleg/fitness-tracker/pkg/sendgrid"
	sms "github.com/pushpullleg/fitness-tracker/pkg/twilio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, seen-id fast path disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)

	channels := buildChannels(cfg, redisClient, natsConn, logger)
	dispatcher := service.NewDispatcher(channels, cfg.NotifyTimeout, logger)

	fetcher := service.NewHTTPFetcher(cfg.FetchTimeout, logger)
	normalizer := service.NewNormalizer(validate, cfg.DefaultTeam, logger)
	ingestService := service.NewIngestService(cfg.Sources, fetcher, normalizer, activityRepo, dispatcher, redisClient, cfg.SeenCacheTTL, logger)
	aggregateService := service.NewAggregateService(activityRepo, cfg.RecentLimit, logger)
	digestService := service.NewDigestService(activityRepo, buildEmailSender(cfg, logger), cfg.EmailRecipients, cfg.EmailFrom, cfg.DigestWindow, cfg.ChallengeEnd, logger)

	ingestHandler := handler.NewIngestHandler(ingestService, cfg.WebhookTimeout, logger)
	reportHandler := handler.NewReportHandler(aggregateService, logger)
	digestHandler := handler.NewDigestHandler(digestService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		IngestHandler: ingestHandler,
		ReportHandler: reportHandler,
		DigestHandler: digestHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddress()).
		Int("sources", len(cfg.Sources)).
		Msg("tracker started")

	waitForShutdown(app)
}

// buildChannels assembles the notification fan-out from whatever is
// configured. Unconfigured channels are simply absent, so dispatch no-ops.
func buildChannels(cfg config.Config, redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) []service.Channel {
	var channels []service.Channel

	if cfg.SMSConfigured() {
		sender, err := sms.New(sms.Config{
			AccountSID: cfg.TwilioSID,
			AuthToken:  cfg.TwilioToken,
			From:       cfg.TwilioFrom,
			Timeout:    cfg.NotifyTimeout,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("sms notifications disabled")
		} else {
			channels = append(channels, service.NewSMSChannel(sender, cfg.SMSRecipients, logger))
		}
	} else {
		logger.Warn().Msg("twilio not configured, sms notifications disabled")
	}

	if redisClient != nil || natsConn != nil {
		channels = append(channels, service.NewEventChannel(redisClient, natsConn, "fittober:activities", logger))
	}

	return channels
}

func buildEmailSender(cfg config.Config, logger zerolog.Logger) service.EmailSender {
	if !cfg.EmailConfigured() {
		logger.Warn().Msg("sendgrid not configured, email digest disabled")
		return nil
	}

	sender, err := sgmail.New(sgmail.Config{
		APIKey: cfg.SendGridAPIKey,
		From:   cfg.EmailFrom,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("email digest disabled")
		return nil
	}

	return sender
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
