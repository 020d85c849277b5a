package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/dto"
	"github.com/pushpullleg/fitness-tracker/internal/models"
	"github.com/pushpullleg/fitness-tracker/internal/repository"
)

var (
	// ErrEmailNotConfigured indicates the email channel has no sender.
	ErrEmailNotConfigured = errors.New("email delivery is not configured")
	// ErrNoRecipients indicates there is nobody to send the digest to.
	ErrNoRecipients = errors.New("no email recipients configured")
)

// EmailSender sends one email to a recipient list. Implemented by pkg/sendgrid.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// DigestService assembles and delivers the periodic team digest.
type DigestService interface {
	SendDigest(ctx context.Context, testOnly bool) (dto.DigestResult, error)
}

type digestService struct {
	repo          repository.ActivityRepository
	sender        EmailSender
	recipients    []string
	testRecipient string
	window        time.Duration
	challengeEnd  time.Time
	logger        zerolog.Logger
}

// NewDigestService constructs the digest service. sender may be nil when the
// email channel is unconfigured; SendDigest then fails with a structured error
// instead of attempting delivery.
func NewDigestService(
	repo repository.ActivityRepository,
	sender EmailSender,
	recipients []string,
	testRecipient string,
	window time.Duration,
	challengeEnd time.Time,
	logger zerolog.Logger,
) DigestService {
	if window <= 0 {
		window = 24 * time.Hour
	}

	return &digestService{
		repo:          repo,
		sender:        sender,
		recipients:    recipients,
		testRecipient: testRecipient,
		window:        window,
		challengeEnd:  challengeEnd,
		logger:        logger.With().Str("component", "digest_service").Logger(),
	}
}

func (s *digestService) SendDigest(ctx context.Context, testOnly bool) (dto.DigestResult, error) {
	if s.sender == nil {
		return dto.DigestResult{}, ErrEmailNotConfigured
	}

	recipients := s.recipients
	if testOnly {
		if s.testRecipient == "" {
			return dto.DigestResult{}, ErrNoRecipients
		}
		recipients = []string{s.testRecipient}
	}
	if len(recipients) == 0 {
		return dto.DigestResult{}, ErrNoRecipients
	}

	since := time.Now().Add(-s.window)
	recent, err := s.repo.ListSince(ctx, since)
	if err != nil {
		return dto.DigestResult{}, fmt.Errorf("failed to load recent activities: %w", err)
	}

	standings, err := s.repo.AggregateByMember(ctx)
	if err != nil {
		return dto.DigestResult{}, fmt.Errorf("failed to load standings: %w", err)
	}

	total, err := s.repo.AggregateTotal(ctx)
	if err != nil {
		return dto.DigestResult{}, fmt.Errorf("failed to load overall total: %w", err)
	}

	subject := fmt.Sprintf("Fittober update: %d activities logged today", len(recent))
	if testOnly {
		subject = "[TEST] " + subject
	}

	body := s.composeBody(recent, standings, total)

	if err := s.sender.Send(ctx, recipients, subject, body); err != nil {
		return dto.DigestResult{}, fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Info().Int("recipients", len(recipients)).Int("activities", len(recent)).Msg("digest sent")

	return dto.DigestResult{
		Recipients:         len(recipients),
		ActivitiesInWindow: len(recent),
		SentAt:             time.Now().UTC(),
	}, nil
}

func (s *digestService) composeBody(recent []models.ActivityLog, standings []repository.MemberTotal, total int64) string {
	var b strings.Builder

	b.WriteString("Fittober daily update\n")
	if days := s.daysRemaining(); days >= 0 {
		fmt.Fprintf(&b, "%d days remaining in the challenge\n", days)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Activities in the last %s (%d total):\n", s.window, len(recent))
	if len(recent) == 0 {
		b.WriteString("  No activities logged yet. Get moving!\n")
	}
	for _, activity := range recent {
		fmt.Fprintf(&b, "  %s - %s (%d min) at %s\n",
			activity.Member, activity.Activity, activity.DurationMin,
			activity.OccurredAt.Format("Jan 2 3:04 PM"))
	}
	b.WriteString("\n")

	b.WriteString("Team standings:\n")
	for _, standing := range standings {
		percent := 0.0
		if total > 0 {
			percent = float64(standing.TotalMin) / float64(total) * 100
		}
		fmt.Fprintf(&b, "  %s: %d min (%.1f%%)\n", standing.Member, standing.TotalMin, percent)
	}
	fmt.Fprintf(&b, "\nTeam total: %d minutes\n", total)

	return b.String()
}

func (s *digestService) daysRemaining() int {
	if s.challengeEnd.IsZero() {
		return -1
	}
	remaining := time.Until(s.challengeEnd)
	if remaining < 0 {
		return -1
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
