package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one validated workout entry ingested from a remote source.
// The (log_id, source_url) pair is the idempotency key: a given source record
// is stored at most once, and rows are never mutated after insertion.
type ActivityLog struct {
	UID         uint           `gorm:"primaryKey" json:"uid"`
	LogID       string         `gorm:"size:128;not null;uniqueIndex:idx_activity_logs_log_source" json:"log_id"`
	SourceURL   string         `gorm:"size:512;not null;uniqueIndex:idx_activity_logs_log_source" json:"source_url"`
	Member      string         `gorm:"size:128;not null" json:"member"`
	Activity    string         `gorm:"size:128;not null" json:"activity"`
	DurationMin int            `gorm:"not null" json:"duration_min"`
	OccurredAt  time.Time      `gorm:"index;not null" json:"ts"`
	Team        string         `gorm:"size:64" json:"device_team"`
	Raw         datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
}
