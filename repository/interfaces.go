// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/xmailer/xmailer/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// BlinkRepository defines operations for published blinks
type BlinkRepository interface {
	Repository[models.Blink, models.BlinkFilter]
	ByUniqueBlinkID(ctx context.Context, uniqueBlinkID string) (*models.Blink, error)
	ByAnalyticsID(ctx context.Context, analyticsID string) (*models.Blink, error)
}

// MailRepository defines operations for delivered mails
type MailRepository interface {
	Repository[models.Mail, models.MailFilter]
	CountByBlink(ctx context.Context, blinkID uint) (int64, error)
	RecentByBlink(ctx context.Context, blinkID uint, limit int) ([]*models.Mail, error)
}

// AnalyticsRepository defines operations for per-blink aggregates.
// RecordMailEvent and IncrementVisit must be atomic at the store layer so
// that concurrent callers never lose updates.
type AnalyticsRepository interface {
	Repository[models.Analytics, models.AnalyticsFilter]
	ByBlinkID(ctx context.Context, blinkID uint) (*models.Analytics, error)
	RecordMailEvent(ctx context.Context, blinkID uint, fee float64, ts time.Time) error
	IncrementVisit(ctx context.Context, blinkID uint, now time.Time) (int64, error)
	BumpVisitorLocation(ctx context.Context, blinkID uint, country string) error
	RefreshMailCache(ctx context.Context, blinkID uint, totalMails int64, earnings float64, timestamps models.Timestamps) error
}
