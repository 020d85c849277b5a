package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pushpullleg/fitness-tracker/internal/dto"
	"github.com/pushpullleg/fitness-tracker/internal/repository"
)

// AggregateService exposes read-only views over committed activity rows.
type AggregateService interface {
	Aggregates(ctx context.Context) (dto.AggregatesResponse, error)
	Recent(ctx context.Context, limit int) (dto.RecentResponse, error)
}

type aggregateService struct {
	repo         repository.ActivityRepository
	defaultLimit int
	maxLimit     int
	logger       zerolog.Logger
}

// NewAggregateService constructs the aggregation read service.
func NewAggregateService(repo repository.ActivityRepository, defaultLimit int, logger zerolog.Logger) AggregateService {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}

	return &aggregateService{
		repo:         repo,
		defaultLimit: defaultLimit,
		maxLimit:     100,
		logger:       logger.With().Str("component", "aggregate_service").Logger(),
	}
}

func (s *aggregateService) Aggregates(ctx context.Context) (dto.AggregatesResponse, error) {
	totals, err := s.repo.AggregateByMember(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate member totals")
		return dto.AggregatesResponse{}, err
	}

	overall, err := s.repo.AggregateTotal(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate overall total")
		return dto.AggregatesResponse{}, err
	}

	members := make([]dto.MemberTotal, 0, len(totals))
	for _, total := range totals {
		members = append(members, dto.MemberTotal{Name: total.Member, TotalMin: total.TotalMin})
	}

	return dto.AggregatesResponse{
		Members:     members,
		TotalMin:    overall,
		LastUpdated: time.Now().UTC(),
	}, nil
}

func (s *aggregateService) Recent(ctx context.Context, limit int) (dto.RecentResponse, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	activities, err := s.repo.Recent(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list recent activities")
		return dto.RecentResponse{}, err
	}

	responses := dto.NewActivityResponseSlice(activities)

	return dto.RecentResponse{Activities: responses, Count: len(responses)}, nil
}
