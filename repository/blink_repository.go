package repository

import (
	"context"
	"errors"

	"github.com/xmailer/xmailer/models"
	"gorm.io/gorm"
)

// BlinkRepositoryImpl implements BlinkRepository
type BlinkRepositoryImpl struct {
	*BaseRepository[models.Blink, models.BlinkFilter]
}

func NewBlinkRepository(db *gorm.DB) BlinkRepository {
	return &BlinkRepositoryImpl{BaseRepository: NewBaseRepository[models.Blink, models.BlinkFilter](db)}
}

func (r *BlinkRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Blink, error) {
	db := r.getDB(ctx)
	var row models.Blink
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BlinkRepositoryImpl) ByUniqueBlinkID(ctx context.Context, uniqueBlinkID string) (*models.Blink, error) {
	filter := models.BlinkFilter{UniqueBlinkID: &uniqueBlinkID}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *BlinkRepositoryImpl) ByAnalyticsID(ctx context.Context, analyticsID string) (*models.Blink, error) {
	filter := models.BlinkFilter{AnalyticsID: &analyticsID}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *BlinkRepositoryImpl) applyFilter(db *gorm.DB, f models.BlinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UniqueBlinkID != nil {
		db = db.Where("unique_blink_id = ?", *f.UniqueBlinkID)
	}
	if f.AnalyticsID != nil {
		db = db.Where("analytics_id = ?", *f.AnalyticsID)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *BlinkRepositoryImpl) ByFilter(ctx context.Context, filter models.BlinkFilter, orderBy string, limit, offset int) ([]*models.Blink, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Blink{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Blink
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BlinkRepositoryImpl) Count(ctx context.Context, filter models.BlinkFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Blink{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BlinkRepositoryImpl) Exists(ctx context.Context, filter models.BlinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
