package repository

import (
	"context"
	"errors"

	"github.com/xmailer/xmailer/models"
	"gorm.io/gorm"
)

// MailRepositoryImpl implements MailRepository
type MailRepositoryImpl struct {
	*BaseRepository[models.Mail, models.MailFilter]
}

func NewMailRepository(db *gorm.DB) MailRepository {
	return &MailRepositoryImpl{BaseRepository: NewBaseRepository[models.Mail, models.MailFilter](db)}
}

func (r *MailRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Mail, error) {
	db := r.getDB(ctx)
	var row models.Mail
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *MailRepositoryImpl) applyFilter(db *gorm.DB, f models.MailFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.BlinkID != nil {
		db = db.Where("blink_id = ?", *f.BlinkID)
	}
	if f.SenderEmail != nil {
		db = db.Where("sender_email = ?", *f.SenderEmail)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *MailRepositoryImpl) ByFilter(ctx context.Context, filter models.MailFilter, orderBy string, limit, offset int) ([]*models.Mail, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Mail{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Mail
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MailRepositoryImpl) Count(ctx context.Context, filter models.MailFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Mail{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MailRepositoryImpl) Exists(ctx context.Context, filter models.MailFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// CountByBlink returns the authoritative mail count for a blink. The
// analytics cache is refreshed from this value on every read.
func (r *MailRepositoryImpl) CountByBlink(ctx context.Context, blinkID uint) (int64, error) {
	return r.Count(ctx, models.MailFilter{BlinkID: &blinkID})
}

// RecentByBlink returns the most recent mails for a blink, newest first
func (r *MailRepositoryImpl) RecentByBlink(ctx context.Context, blinkID uint, limit int) ([]*models.Mail, error) {
	return r.ByFilter(ctx, models.MailFilter{BlinkID: &blinkID}, "created_at DESC", limit, 0)
}
