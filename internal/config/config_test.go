package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FITTOBER_SOURCES", "https://example.com/a, https://example.com/b")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "Fittober Tracker", cfg.AppName)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, cfg.Sources)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout)
	require.Equal(t, 24*time.Hour, cfg.SeenCacheTTL)
	require.Equal(t, "Fittober", cfg.DefaultTeam)
	require.Equal(t, 5, cfg.RecentLimit)
	require.False(t, cfg.SMSConfigured())
	require.False(t, cfg.EmailConfigured())
}

func TestLoadRequiresSources(t *testing.T) {
	t.Setenv("FITTOBER_SOURCES", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FITTOBER_SOURCES", "https://example.com/a")
	t.Setenv("FITTOBER_APP_PORT", "9090")
	t.Setenv("FITTOBER_FETCH_TIMEOUT", "3s")
	t.Setenv("FITTOBER_TWILIO_SID", "AC123")
	t.Setenv("FITTOBER_TWILIO_TOKEN", "secret")
	t.Setenv("FITTOBER_TWILIO_FROM", "+15550000")
	t.Setenv("FITTOBER_TWILIO_TO", "+15550001,+15550002")
	t.Setenv("FITTOBER_SENDGRID_API_KEY", "SG.key")
	t.Setenv("FITTOBER_SENDGRID_FROM_EMAIL", "tracker@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 3*time.Second, cfg.FetchTimeout)
	require.True(t, cfg.SMSConfigured())
	require.Len(t, cfg.SMSRecipients, 2)
	require.True(t, cfg.EmailConfigured())
}

func TestLoadRejectsInvalidDurations(t *testing.T) {
	t.Setenv("FITTOBER_SOURCES", "https://example.com/a")
	t.Setenv("FITTOBER_FETCH_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
