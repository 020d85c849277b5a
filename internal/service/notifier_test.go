package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pushpullleg/fitness-tracker/internal/models"
)

type recordingSMSSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (s *recordingSMSSender) Send(_ context.Context, to, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failFor[to] {
		return errors.New("carrier rejected message")
	}
	s.sent = append(s.sent, to)
	return nil
}

func notifierFixture() models.ActivityLog {
	return models.ActivityLog{
		LogID:       "log-1",
		SourceURL:   "src",
		Member:      "Alice",
		Activity:    "Running",
		DurationMin: 30,
		OccurredAt:  time.Now().UTC(),
		Team:        "Fittober",
	}
}

func TestSMSChannelIsolatesRecipientFailures(t *testing.T) {
	sender := &recordingSMSSender{failFor: map[string]bool{"+15550002": true}}
	channel := NewSMSChannel(sender, []string{"+15550001", "+15550002", "+15550003"}, testLogger())

	err := channel.Notify(context.Background(), notifierFixture())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"+15550001", "+15550003"}, sender.sent)
}

func TestSMSChannelReportsTotalFailure(t *testing.T) {
	sender := &recordingSMSSender{failFor: map[string]bool{"+15550001": true, "+15550002": true}}
	channel := NewSMSChannel(sender, []string{"+15550001", "+15550002"}, testLogger())

	err := channel.Notify(context.Background(), notifierFixture())
	require.Error(t, err)
}

func TestDispatcherFansOutToAllChannels(t *testing.T) {
	first := &countingChannel{}
	second := &countingChannel{}
	dispatcher := NewDispatcher([]Channel{first, second}, time.Second, testLogger())

	dispatcher.Dispatch(context.Background(), notifierFixture())

	require.Equal(t, 1, first.notified())
	require.Equal(t, 1, second.notified())
}

type failingChannel struct{}

func (failingChannel) Name() string { return "failing" }

func (failingChannel) Notify(context.Context, models.ActivityLog) error {
	return errors.New("delivery failed")
}

func TestDispatcherToleratesChannelFailure(t *testing.T) {
	healthy := &countingChannel{}
	dispatcher := NewDispatcher([]Channel{failingChannel{}, healthy}, time.Second, testLogger())

	dispatcher.Dispatch(context.Background(), notifierFixture())
	require.Equal(t, 1, healthy.notified())
}

func TestDispatcherWithoutChannelsIsNoOp(t *testing.T) {
	dispatcher := NewDispatcher(nil, time.Second, testLogger())
	dispatcher.Dispatch(context.Background(), notifierFixture())
}

type slowChannel struct{}

func (slowChannel) Name() string { return "slow" }

func (slowChannel) Notify(ctx context.Context, _ models.ActivityLog) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcherBoundsSlowChannels(t *testing.T) {
	dispatcher := NewDispatcher([]Channel{slowChannel{}}, 20*time.Millisecond, testLogger())

	start := time.Now()
	dispatcher.Dispatch(context.Background(), notifierFixture())
	require.Less(t, time.Since(start), time.Second)
}

type recordingNATSPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *recordingNATSPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, append([]byte(nil), data...))
	return nil
}

func TestEventChannelPublishesToBothTransports(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	sub := client.Subscribe(context.Background(), "fittober:activities")
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	natsStub := &recordingNATSPublisher{}
	channel := NewEventChannel(client, nil, "fittober:activities", testLogger())
	channel.nats = natsStub

	require.NoError(t, channel.Notify(context.Background(), notifierFixture()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, "log-1", event["log_id"])
	require.Equal(t, "Alice", event["member"])
	require.Equal(t, float64(30), event["duration_min"])

	require.Equal(t, []string{"fittober.activities.ingested"}, natsStub.subjects)
	require.JSONEq(t, msg.Payload, string(natsStub.payloads[0]))
}

func TestEventChannelRedisOutageDoesNotSuppressNATS(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	mr.Close()

	natsStub := &recordingNATSPublisher{}
	channel := NewEventChannel(client, nil, "fittober:activities", testLogger())
	channel.nats = natsStub

	err := channel.Notify(context.Background(), notifierFixture())
	require.Error(t, err)
	require.Len(t, natsStub.subjects, 1)
}

func TestEventChannelWithoutTransportsIsNoOp(t *testing.T) {
	channel := NewEventChannel(nil, nil, "", testLogger())
	require.NoError(t, channel.Notify(context.Background(), notifierFixture()))
}
