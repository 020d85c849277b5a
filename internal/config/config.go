package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the tracker service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	NATSURL         string
	Sources         []string
	FetchTimeout    time.Duration
	NotifyTimeout   time.Duration
	WebhookTimeout  time.Duration
	SeenCacheTTL    time.Duration
	DefaultTeam     string
	RecentLimit     int
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	SMSRecipients   []string
	SendGridAPIKey  string
	EmailFrom       string
	EmailRecipients []string
	DigestWindow    time.Duration
	ChallengeEnd    time.Time
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SMSConfigured reports whether the Twilio channel has enough configuration to send.
func (c Config) SMSConfigured() bool {
	return c.TwilioSID != "" && c.TwilioToken != "" && c.TwilioFrom != "" && len(c.SMSRecipients) > 0
}

// EmailConfigured reports whether the SendGrid channel has enough configuration to send.
func (c Config) EmailConfigured() bool {
	return c.SendGridAPIKey != "" && c.EmailFrom != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FITTOBER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Fittober Tracker")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("webhook.timeout", "2m")
	v.SetDefault("seen_cache.ttl", "24h")
	v.SetDefault("team.default", "Fittober")
	v.SetDefault("recent.limit", 5)
	v.SetDefault("digest.window", "24h")
	v.SetDefault("challenge.end", "2025-10-31T23:59:59Z")

	fetchTimeout, err := time.ParseDuration(v.GetString("fetch.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid fetch timeout: %w", err)
	}

	notifyTimeout, err := time.ParseDuration(v.GetString("notify.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid notify timeout: %w", err)
	}

	webhookTimeout, err := time.ParseDuration(v.GetString("webhook.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid webhook timeout: %w", err)
	}

	seenTTL, err := time.ParseDuration(v.GetString("seen_cache.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid seen cache ttl: %w", err)
	}

	digestWindow, err := time.ParseDuration(v.GetString("digest.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid digest window: %w", err)
	}

	challengeEnd, err := time.Parse(time.RFC3339, v.GetString("challenge.end"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid challenge end date: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		NATSURL:         v.GetString("nats.url"),
		Sources:         splitList(v.GetString("sources")),
		FetchTimeout:    fetchTimeout,
		NotifyTimeout:   notifyTimeout,
		WebhookTimeout:  webhookTimeout,
		SeenCacheTTL:    seenTTL,
		DefaultTeam:     v.GetString("team.default"),
		RecentLimit:     v.GetInt("recent.limit"),
		TwilioSID:       v.GetString("twilio.sid"),
		TwilioToken:     v.GetString("twilio.token"),
		TwilioFrom:      v.GetString("twilio.from"),
		SMSRecipients:   splitList(v.GetString("twilio.to")),
		SendGridAPIKey:  v.GetString("sendgrid.api_key"),
		EmailFrom:       v.GetString("sendgrid.from_email"),
		EmailRecipients: splitList(v.GetString("email.recipients")),
		DigestWindow:    digestWindow,
		ChallengeEnd:    challengeEnd,
	}

	if len(cfg.Sources) == 0 {
		return Config{}, fmt.Errorf("at least one source url must be configured")
	}

	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}

	return values
}
