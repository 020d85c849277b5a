package dto

import (
	"time"

	"github.com/pushpullleg/fitness-tracker/internal/models"
)

// IngestRecord is the canonical form of one raw source record after field
// extraction and normalization, immediately before persistence.
type IngestRecord struct {
	LogID       string                 `validate:"required"`
	SourceURL   string                 `validate:"required"`
	Member      string                 `validate:"required"`
	Activity    string                 `validate:"required"`
	DurationMin int                    `validate:"gte=0"`
	OccurredAt  time.Time              `validate:"required"`
	Team        string                 `validate:"required"`
	Raw         map[string]interface{} `validate:"-"`
}

// CycleResult summarises one poll cycle over all configured sources.
type CycleResult struct {
	CycleID          string `json:"cycle_id"`
	SourcesProcessed int    `json:"sources_processed"`
	SourcesErrored   int    `json:"sources_errored"`
	RecordsInserted  int    `json:"records_inserted"`
	RecordsDuplicate int    `json:"records_duplicate"`
	RecordsRejected  int    `json:"records_rejected"`
	RecordsFailed    int    `json:"records_failed"`
	DurationMS       int64  `json:"duration_ms"`
}

// MemberTotal is one member's accumulated minutes.
type MemberTotal struct {
	Name     string `json:"name"`
	TotalMin int64  `json:"total_min"`
}

// AggregatesResponse mirrors the aggregates.json document served to the dashboard.
type AggregatesResponse struct {
	Members     []MemberTotal `json:"members"`
	TotalMin    int64         `json:"total_min"`
	LastUpdated time.Time     `json:"last_updated"`
}

// ActivityResponse is the public view of one stored activity.
type ActivityResponse struct {
	Member      string    `json:"member"`
	Activity    string    `json:"activity"`
	DurationMin int       `json:"duration_min"`
	OccurredAt  time.Time `json:"ts"`
}

// NewActivityResponse maps a stored row to its response shape.
func NewActivityResponse(activity models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		Member:      activity.Member,
		Activity:    activity.Activity,
		DurationMin: activity.DurationMin,
		OccurredAt:  activity.OccurredAt,
	}
}

// NewActivityResponseSlice maps stored rows to their response shapes.
func NewActivityResponseSlice(activities []models.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity))
	}
	return responses
}

// RecentResponse lists the most recently occurred activities.
type RecentResponse struct {
	Activities []ActivityResponse `json:"activities"`
	Count      int                `json:"count"`
}

// DigestResult reports the outcome of one digest delivery.
type DigestResult struct {
	Recipients         int       `json:"recipients"`
	ActivitiesInWindow int       `json:"activities_in_window"`
	SentAt             time.Time `json:"timestamp"`
}
