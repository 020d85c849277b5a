package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pushpullleg/fitness-tracker/internal/dto"
	"github.com/pushpullleg/fitness-tracker/internal/models"
	"github.com/pushpullleg/fitness-tracker/internal/observability"
	"github.com/pushpullleg/fitness-tracker/internal/repository"
)

// IngestService runs the fetch → normalize → persist → notify pipeline.
//
// RunCycle never retries internally: a source that fails this cycle is simply
// counted, and the externally scheduled next cycle is the retry mechanism.
type IngestService interface {
	RunCycle(ctx context.Context) (dto.CycleResult, error)
}

type ingestService struct {
	sources    []string
	fetcher    Fetcher
	normalizer *Normalizer
	repo       repository.ActivityRepository
	dispatcher *Dispatcher
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewIngestService constructs the ingestion pipeline over the configured
// sources. The redis client is an optional seen-id fast path in front of the
// store's uniqueness constraint; pass nil to rely on the constraint alone.
func NewIngestService(
	sources []string,
	fetcher Fetcher,
	normalizer *Normalizer,
	repo repository.ActivityRepository,
	dispatcher *Dispatcher,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) IngestService {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ingestService{
		sources:    sources,
		fetcher:    fetcher,
		normalizer: normalizer,
		repo:       repo,
		dispatcher: dispatcher,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.With().Str("component", "ingest_service").Logger(),
		tracer:     otel.Tracer("github.com/pushpullleg/fitness-tracker/internal/service/ingest"),
	}
}

type sourceStats struct {
	inserted  int
	duplicate int
	rejected  int
	failed    int
}

// RunCycle iterates all configured sources sequentially. A failing source is
// counted in SourcesErrored and never aborts the remaining sources; the cycle
// always completes and reports its counts.
func (s *ingestService) RunCycle(ctx context.Context) (dto.CycleResult, error) {
	cycleID := uuid.NewString()
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "ingest.run_cycle", trace.WithAttributes(
		attribute.String("cycle.id", cycleID),
		attribute.Int("cycle.sources", len(s.sources)),
	))
	defer span.End()

	result := dto.CycleResult{CycleID: cycleID}
	logger := s.logger.With().Str("cycle_id", cycleID).Logger()
	logger.Info().Int("sources", len(s.sources)).Msg("poll cycle started")

	for _, source := range s.sources {
		stats, err := s.processSource(ctx, source, logger)

		result.RecordsInserted += stats.inserted
		result.RecordsDuplicate += stats.duplicate
		result.RecordsRejected += stats.rejected
		result.RecordsFailed += stats.failed

		if err != nil {
			result.SourcesErrored++
			observability.PollSources().WithLabelValues("errored").Inc()
			logger.Warn().Err(err).Str("source", source).Msg("source skipped this cycle")
			continue
		}

		result.SourcesProcessed++
		observability.PollSources().WithLabelValues("processed").Inc()
	}

	result.DurationMS = time.Since(start).Milliseconds()
	span.SetAttributes(
		attribute.Int("cycle.records_inserted", result.RecordsInserted),
		attribute.Int("cycle.records_duplicate", result.RecordsDuplicate),
		attribute.Int("cycle.sources_errored", result.SourcesErrored),
	)

	if result.SourcesErrored > 0 {
		span.SetStatus(codes.Error, "cycle completed with source errors")
		observability.PollCycles().WithLabelValues("partial").Inc()
	} else {
		span.SetStatus(codes.Ok, "cycle completed")
		observability.PollCycles().WithLabelValues("ok").Inc()
	}

	logger.Info().
		Int("sources_processed", result.SourcesProcessed).
		Int("sources_errored", result.SourcesErrored).
		Int("records_inserted", result.RecordsInserted).
		Int("records_duplicate", result.RecordsDuplicate).
		Int("records_rejected", result.RecordsRejected).
		Int64("duration_ms", result.DurationMS).
		Msg("poll cycle completed")

	return result, nil
}

func (s *ingestService) processSource(ctx context.Context, source string, logger zerolog.Logger) (sourceStats, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.process_source", trace.WithAttributes(
		attribute.String("source.url", source),
	))
	defer span.End()

	var stats sourceStats

	doc, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return stats, err
	}

	records := s.normalizer.Records(doc)
	span.SetAttributes(attribute.Int("source.records", len(records)))
	if len(records) == 0 {
		logger.Debug().Str("source", source).Msg("no recognizable record list in source document")
		return stats, nil
	}

	for _, raw := range records {
		record, err := s.normalizer.Canonicalize(raw, source)
		if err != nil {
			stats.rejected++
			observability.PollRecords().WithLabelValues("rejected").Inc()
			logger.Warn().Err(err).Str("source", source).Msg("record rejected")
			continue
		}

		inserted, err := s.persist(ctx, record)
		if err != nil {
			stats.failed++
			observability.PollRecords().WithLabelValues("failed").Inc()
			logger.Error().Err(err).
				Str("source", source).
				Str("log_id", record.LogID).
				Msg("failed to persist record")
			continue
		}

		if !inserted {
			stats.duplicate++
			observability.PollRecords().WithLabelValues("duplicate").Inc()
			continue
		}

		stats.inserted++
		observability.PollRecords().WithLabelValues("inserted").Inc()
	}

	return stats, nil
}

// persist stores the record idempotently and, only when it was newly
// inserted, fans out notifications. The notify-after-insert ordering per
// record is what guarantees exactly-once notification.
func (s *ingestService) persist(ctx context.Context, record dto.IngestRecord) (bool, error) {
	seenKey := fmt.Sprintf("activity:seen:%s:%s", record.SourceURL, record.LogID)

	if s.cache != nil {
		hit, err := s.cache.Exists(ctx, seenKey).Result()
		if err == nil && hit > 0 {
			return false, nil
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			// Cache being down disables the fast path, never the pipeline.
			s.logger.Debug().Err(err).Msg("seen cache unavailable")
		}
	}

	rawPayload, err := json.Marshal(record.Raw)
	if err != nil {
		return false, fmt.Errorf("failed to serialize raw payload: %w", err)
	}

	activity := models.ActivityLog{
		LogID:       record.LogID,
		SourceURL:   record.SourceURL,
		Member:      record.Member,
		Activity:    record.Activity,
		DurationMin: record.DurationMin,
		OccurredAt:  record.OccurredAt,
		Team:        record.Team,
		Raw:         rawPayload,
	}

	inserted, err := s.repo.InsertIfNew(ctx, &activity)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		// Populated only after the store has durably decided, so the store
		// stays the source of truth.
		if err := s.cache.Set(ctx, seenKey, 1, s.cacheTTL).Err(); err != nil {
			s.logger.Debug().Err(err).Msg("failed to mark record as seen")
		}
	}

	if inserted {
		s.logger.Info().
			Str("member", activity.Member).
			Str("activity", activity.Activity).
			Int("duration_min", activity.DurationMin).
			Msg("new activity logged")
		if s.dispatcher != nil {
			s.dispatcher.Dispatch(ctx, activity)
		}
	}

	return inserted, nil
}
