package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pushpullleg/fitness-tracker/internal/models"
)

func TestAggregateServiceBuildsAggregates(t *testing.T) {
	repo := &memoryActivityRepo{}
	now := time.Now().UTC()
	fixtures := []models.ActivityLog{
		{LogID: "log-1", SourceURL: "src", Member: "Alice", Activity: "Running", DurationMin: 10, OccurredAt: now},
		{LogID: "log-2", SourceURL: "src", Member: "Bob", Activity: "Yoga", DurationMin: 5, OccurredAt: now},
		{LogID: "log-3", SourceURL: "src", Member: "Alice", Activity: "Cycling", DurationMin: 7, OccurredAt: now},
	}
	for i := range fixtures {
		_, err := repo.InsertIfNew(context.Background(), &fixtures[i])
		require.NoError(t, err)
	}

	svc := NewAggregateService(repo, 5, testLogger())

	response, err := svc.Aggregates(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(22), response.TotalMin)
	require.Len(t, response.Members, 2)
	require.False(t, response.LastUpdated.IsZero())
}

func TestAggregateServiceRecentClampsLimit(t *testing.T) {
	repo := &memoryActivityRepo{}
	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		fixture := models.ActivityLog{
			LogID: string(rune('a' + i)), SourceURL: "src",
			Member: "Alice", Activity: "Running", DurationMin: 10, OccurredAt: now,
		}
		_, err := repo.InsertIfNew(context.Background(), &fixture)
		require.NoError(t, err)
	}

	svc := NewAggregateService(repo, 5, testLogger())

	response, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 5, response.Count)

	response, err = svc.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 3, response.Count)

	response, err = svc.Recent(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, 8, response.Count)
}
