package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pushpullleg/fitness-tracker/internal/models"
)

type recordingEmailSender struct {
	to      []string
	subject string
	body    string
	err     error
}

func (s *recordingEmailSender) Send(_ context.Context, to []string, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.to = to
	s.subject = subject
	s.body = body
	return nil
}

func digestRepoFixture(t *testing.T) *memoryActivityRepo {
	t.Helper()

	repo := &memoryActivityRepo{}
	now := time.Now().UTC()
	fixtures := []models.ActivityLog{
		{LogID: "log-1", SourceURL: "src", Member: "Alice", Activity: "Running", DurationMin: 30, OccurredAt: now.Add(-time.Hour), Team: "Fittober"},
		{LogID: "log-2", SourceURL: "src", Member: "Bob", Activity: "Yoga", DurationMin: 10, OccurredAt: now.Add(-2 * time.Hour), Team: "Fittober"},
		{LogID: "log-3", SourceURL: "src", Member: "Alice", Activity: "Cycling", DurationMin: 20, OccurredAt: now.Add(-72 * time.Hour), Team: "Fittober"},
	}
	for i := range fixtures {
		inserted, err := repo.InsertIfNew(context.Background(), &fixtures[i])
		require.NoError(t, err)
		require.True(t, inserted)
	}
	return repo
}

func TestSendDigestDeliversToRecipients(t *testing.T) {
	repo := digestRepoFixture(t)
	sender := &recordingEmailSender{}
	svc := NewDigestService(repo, sender, []string{"a@example.com", "b@example.com"}, "me@example.com", 24*time.Hour, time.Now().Add(48*time.Hour), testLogger())

	result, err := svc.SendDigest(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, result.Recipients)
	require.Equal(t, 2, result.ActivitiesInWindow)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, sender.to)
	require.Contains(t, sender.subject, "2 activities")
	require.Contains(t, sender.body, "Alice")
	require.Contains(t, sender.body, "Team total: 60 minutes")
}

func TestSendDigestTestModeTargetsSingleRecipient(t *testing.T) {
	repo := digestRepoFixture(t)
	sender := &recordingEmailSender{}
	svc := NewDigestService(repo, sender, []string{"a@example.com"}, "me@example.com", 24*time.Hour, time.Time{}, testLogger())

	result, err := svc.SendDigest(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Recipients)
	require.Equal(t, []string{"me@example.com"}, sender.to)
	require.Contains(t, sender.subject, "[TEST]")
}

func TestSendDigestWithoutSender(t *testing.T) {
	svc := NewDigestService(&memoryActivityRepo{}, nil, []string{"a@example.com"}, "", 24*time.Hour, time.Time{}, testLogger())

	_, err := svc.SendDigest(context.Background(), false)
	require.True(t, errors.Is(err, ErrEmailNotConfigured))
}

func TestSendDigestWithoutRecipients(t *testing.T) {
	sender := &recordingEmailSender{}
	svc := NewDigestService(&memoryActivityRepo{}, sender, nil, "", 24*time.Hour, time.Time{}, testLogger())

	_, err := svc.SendDigest(context.Background(), false)
	require.True(t, errors.Is(err, ErrNoRecipients))

	_, err = svc.SendDigest(context.Background(), true)
	require.True(t, errors.Is(err, ErrNoRecipients))
}

func TestSendDigestPropagatesSenderError(t *testing.T) {
	repo := digestRepoFixture(t)
	sender := &recordingEmailSender{err: errors.New("smtp unavailable")}
	svc := NewDigestService(repo, sender, []string{"a@example.com"}, "", 24*time.Hour, time.Time{}, testLogger())

	_, err := svc.SendDigest(context.Background(), false)
	require.Error(t, err)
}
