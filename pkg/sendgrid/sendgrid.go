package sendgrid

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config contains credentials required to send email through SendGrid.
type Config struct {
	APIKey   string
	From     string
	FromName string
}

// Service implements the EmailSender interface using the SendGrid API.
type Service struct {
	client *sendgrid.Client
	from   *mail.Email
	logger zerolog.Logger
}

// New constructs a SendGrid service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.APIKey == "" || cfg.From == "" {
		return nil, fmt.Errorf("sendgrid credentials must be provided")
	}

	fromName := cfg.FromName
	if fromName == "" {
		fromName = "Fittober Tracker"
	}

	return &Service{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(fromName, cfg.From),
		logger: logger.With().Str("component", "sendgrid").Logger(),
	}, nil
}

// Send delivers one email to the recipient list. All recipients share a
// single personalization, matching digest semantics.
func (s *Service) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	message := mail.NewV3Mail()
	message.SetFrom(s.from)
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, addr := range to {
		personalization.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", body))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email with status %d", response.StatusCode)
	}

	s.logger.Info().Int("recipients", len(to)).Str("subject", subject).Msg("email sent")

	return nil
}
