package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/models"
	"github.com/pushpullleg/fitness-tracker/internal/observability"
)

// Channel delivers a notification for one newly inserted activity.
// Implementations isolate per-recipient failures internally.
type Channel interface {
	Name() string
	Notify(ctx context.Context, activity models.ActivityLog) error
}

// Dispatcher fans out newly inserted records to every configured channel.
// Notification is best-effort: channel failures are logged and counted, never
// escalated into the ingestion pipeline. Duplicates must not reach Dispatch;
// the caller only invokes it for records the store reported as inserted.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewDispatcher constructs a dispatcher over the supplied channels. A nil or
// empty channel list yields a dispatcher that silently no-ops.
func NewDispatcher(channels []Channel, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		logger:   logger.With().Str("component", "notifier").Logger(),
	}
}

// Dispatch sends the activity to all channels concurrently and waits for the
// outcomes. Each channel send carries its own timeout, so the wait is bounded.
func (d *Dispatcher) Dispatch(ctx context.Context, activity models.ActivityLog) {
	if len(d.channels) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, channel := range d.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := ch.Notify(sendCtx, activity); err != nil {
				observability.Notifications().WithLabelValues(ch.Name(), "failed").Inc()
				d.logger.Warn().Err(err).
					Str("channel", ch.Name()).
					Str("log_id", activity.LogID).
					Msg("notification channel failed")
				return
			}

			observability.Notifications().WithLabelValues(ch.Name(), "sent").Inc()
		}(channel)
	}

	wg.Wait()
}

// SMSSender sends one text message. Implemented by pkg/twilio.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// SMSChannel notifies a fixed recipient list about each new activity.
type SMSChannel struct {
	sender     SMSSender
	recipients []string
	logger     zerolog.Logger
}

// NewSMSChannel constructs the SMS channel.
func NewSMSChannel(sender SMSSender, recipients []string, logger zerolog.Logger) *SMSChannel {
	return &SMSChannel{
		sender:     sender,
		recipients: recipients,
		logger:     logger.With().Str("component", "sms_channel").Logger(),
	}
}

// Name identifies the channel in logs and metrics.
func (c *SMSChannel) Name() string { return "sms" }

// Notify sends the activity summary to every recipient. One recipient's
// failure does not prevent delivery attempts to the others.
func (c *SMSChannel) Notify(ctx context.Context, activity models.ActivityLog) error {
	body := fmt.Sprintf("New %s activity: %s - %s (%d min)",
		activity.Team, activity.Member, activity.Activity, activity.DurationMin)

	var failed int
	for _, recipient := range c.recipients {
		if err := c.sender.Send(ctx, recipient, body); err != nil {
			failed++
			c.logger.Warn().Err(err).Str("to", recipient).Msg("sms send failed")
		}
	}

	if failed == len(c.recipients) && failed > 0 {
		return fmt.Errorf("all %d sms sends failed", failed)
	}

	return nil
}

// activityEvent is the wire envelope published for every inserted record.
type activityEvent struct {
	Source      string    `json:"source"`
	LogID       string    `json:"log_id"`
	SourceURL   string    `json:"source_url"`
	Member      string    `json:"member"`
	Activity    string    `json:"activity"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"ts"`
	Team        string    `json:"device_team"`
	SentAt      time.Time `json:"sent_at"`
}

// redisPublisher is the slice of the redis client the event channel uses.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// natsPublisher is the slice of the NATS connection the event channel uses.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// EventChannel publishes inserted records to redis pub/sub and NATS so other
// nodes and dashboard consumers observe them. Either transport may be nil.
type EventChannel struct {
	redis        redisPublisher
	redisChannel string
	nats         natsPublisher
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

// NewEventChannel constructs the event broadcast channel. channelBase names
// the redis channel and, with dots for colons, the NATS subject.
func NewEventChannel(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *EventChannel {
	if channelBase == "" {
		channelBase = "fittober:activities"
	}

	channel := &EventChannel{
		redisChannel: channelBase,
		natsSubject:  strings.ReplaceAll(channelBase, ":", ".") + ".ingested",
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "event_channel").Logger(),
	}
	if redisClient != nil {
		channel.redis = redisClient
	}
	if natsConn != nil {
		channel.nats = natsConn
	}

	return channel
}

// Name identifies the channel in logs and metrics.
func (c *EventChannel) Name() string { return "events" }

// Notify publishes the activity envelope to every configured transport. One
// transport's failure does not prevent the attempt on the other.
func (c *EventChannel) Notify(ctx context.Context, activity models.ActivityLog) error {
	event := activityEvent{
		Source:      c.nodeID,
		LogID:       activity.LogID,
		SourceURL:   activity.SourceURL,
		Member:      activity.Member,
		Activity:    activity.Activity,
		DurationMin: activity.DurationMin,
		OccurredAt:  activity.OccurredAt,
		Team:        activity.Team,
		SentAt:      time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if c.redis != nil {
		if err := c.redis.Publish(ctx, c.redisChannel, payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		}
	}

	if c.nats != nil {
		if err := c.nats.Publish(c.natsSubject, payload); err != nil {
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		}
	}

	return errors.Join(errs...)
}
