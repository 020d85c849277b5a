package twilio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// Config contains credentials required to send SMS through Twilio.
type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

// Service implements the SMSSender interface using the Twilio REST API.
type Service struct {
	client *twilio.RestClient
	from   string
	logger zerolog.Logger
}

// New constructs a Twilio service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("twilio credentials must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.SetTimeout(timeout)

	return &Service{
		client: client,
		from:   cfg.From,
		logger: logger.With().Str("component", "twilio").Logger(),
	}, nil
}

// Send delivers a single text message. The client carries its own request
// timeout; ctx is honoured for early cancellation checks only, as the Twilio
// SDK does not accept a context per call.
func (s *Service) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &api.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetBody(body)

	message, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}

	sid := ""
	if message.Sid != nil {
		sid = *message.Sid
	}
	s.logger.Info().Str("sid", sid).Str("to", to).Msg("sms sent")

	return nil
}
