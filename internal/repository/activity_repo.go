package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pushpullleg/fitness-tracker/internal/models"
)

// MemberTotal is one member's summed minutes across all stored activities.
type MemberTotal struct {
	Member   string
	TotalMin int64
}

// ActivityRepository persists and reads ingested activity records.
//
// InsertIfNew is the sole deduplication mechanism: the (log_id, source_url)
// uniqueness constraint decides whether a record is new, so concurrent
// inserts of the same logical record are safe. One wins and the rest
// observe a duplicate.
type ActivityRepository interface {
	InsertIfNew(ctx context.Context, activity *models.ActivityLog) (bool, error)
	AggregateByMember(ctx context.Context) ([]MemberTotal, error)
	AggregateTotal(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
	ListSince(ctx context.Context, since time.Time) ([]models.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) InsertIfNew(ctx context.Context, activity *models.ActivityLog) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "log_id"}, {Name: "source_url"}},
		DoNothing: true,
	}).Create(activity)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *activityRepository) AggregateByMember(ctx context.Context) ([]MemberTotal, error) {
	var totals []MemberTotal
	err := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Select("member, SUM(duration_min) AS total_min").
		Group("member").
		Order("total_min DESC").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	return totals, nil
}

func (r *activityRepository) AggregateTotal(ctx context.Context) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Select("SUM(duration_min)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}

	// SUM over an empty table is NULL, not zero.
	if total == nil {
		return 0, nil
	}

	return *total, nil
}

func (r *activityRepository) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 5
	}

	var activities []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) ListSince(ctx context.Context, since time.Time) ([]models.ActivityLog, error) {
	var activities []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("occurred_at >= ?", since).
		Order("occurred_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	return activities, nil
}
