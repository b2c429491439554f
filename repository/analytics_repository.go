package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xmailer/xmailer/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsRepositoryImpl implements AnalyticsRepository
type AnalyticsRepositoryImpl struct {
	*BaseRepository[models.Analytics, models.AnalyticsFilter]
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &AnalyticsRepositoryImpl{BaseRepository: NewBaseRepository[models.Analytics, models.AnalyticsFilter](db)}
}

func (r *AnalyticsRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Analytics, error) {
	db := r.getDB(ctx)
	var row models.Analytics
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *AnalyticsRepositoryImpl) ByBlinkID(ctx context.Context, blinkID uint) (*models.Analytics, error) {
	filter := models.AnalyticsFilter{BlinkID: &blinkID}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *AnalyticsRepositoryImpl) applyFilter(db *gorm.DB, f models.AnalyticsFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.BlinkID != nil {
		db = db.Where("blink_id = ?", *f.BlinkID)
	}
	return db
}

func (r *AnalyticsRepositoryImpl) ByFilter(ctx context.Context, filter models.AnalyticsFilter, orderBy string, limit, offset int) ([]*models.Analytics, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Analytics{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Analytics
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AnalyticsRepositoryImpl) Count(ctx context.Context, filter models.AnalyticsFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Analytics{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnalyticsRepositoryImpl) Exists(ctx context.Context, filter models.AnalyticsFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// RecordMailEvent upserts the aggregate for a mail event in a single
// statement. The unique index on blink_id makes the insert race-safe and
// the column expressions run inside the statement, so two concurrent mail
// events both land: counters increment and the timestamp array is appended
// to, never overwritten.
func (r *AnalyticsRepositoryImpl) RecordMailEvent(ctx context.Context, blinkID uint, fee float64, ts time.Time) error {
	db := r.getDB(ctx)

	row := models.Analytics{
		BlinkID:          blinkID,
		TotalMails:       1,
		Earnings:         fee,
		LastVisited:      ts,
		VisitorLocations: models.LocationCounts{},
		MailTimestamps:   models.Timestamps{ts},
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "blink_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_mails":     gorm.Expr("analytics.total_mails + 1"),
			"earnings":        gorm.Expr("analytics.earnings + ?", fee),
			"mail_timestamps": gorm.Expr("analytics.mail_timestamps || excluded.mail_timestamps"),
			"updated_at":      ts,
		}),
	}).Create(&row).Error
}

// IncrementVisit atomically bumps total_visits for an existing aggregate
// and stamps last_visited. Returns the number of rows touched: zero means
// no aggregate exists yet and the caller decides the seeding policy.
func (r *AnalyticsRepositoryImpl) IncrementVisit(ctx context.Context, blinkID uint, now time.Time) (int64, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.Analytics{}).
		Where("blink_id = ?", blinkID).
		Updates(map[string]any{
			"total_visits": gorm.Expr("total_visits + 1"),
			"last_visited": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// BumpVisitorLocation increments the per-country counter inside the
// visitor_locations jsonb map in place, so concurrent visits from the same
// country never clobber each other.
func (r *AnalyticsRepositoryImpl) BumpVisitorLocation(ctx context.Context, blinkID uint, country string) error {
	if country == "" {
		return nil
	}
	db := r.getDB(ctx)

	return db.Model(&models.Analytics{}).
		Where("blink_id = ?", blinkID).
		Update("visitor_locations", gorm.Expr(
			"jsonb_set(COALESCE(visitor_locations, '{}'::jsonb), ARRAY[?], (COALESCE((visitor_locations->>?)::bigint, 0) + 1)::text::jsonb)",
			country, country,
		)).Error
}

// RefreshMailCache overwrites the mail-derived cache columns with values
// recomputed from the mails table. total_visits and last_visited are left
// untouched.
func (r *AnalyticsRepositoryImpl) RefreshMailCache(ctx context.Context, blinkID uint, totalMails int64, earnings float64, timestamps models.Timestamps) error {
	db := r.getDB(ctx)

	return db.Model(&models.Analytics{}).
		Where("blink_id = ?", blinkID).
		Updates(map[string]any{
			"total_mails":     totalMails,
			"earnings":        earnings,
			"mail_timestamps": timestamps,
			"updated_at":      time.Now().UTC(),
		}).Error
}
