package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/models"
	"github.com/xmailer/xmailer/repository"
)

// recentTimestampsLimit caps the mail timestamps kept for the
// recent-activity display.
const recentTimestampsLimit = 5

// AnalyticsFlow serves per-blink aggregate snapshots. The mails table is
// the source of truth: every snapshot recomputes the mail counters from it,
// so the stored columns only bridge between reads.
// Public flow, no authentication required
type AnalyticsFlow interface {
	RecordVisit(ctx context.Context, analyticsID string, metadata *ClientMetadata) (*dto.AnalyticsSnapshotDTO, error)
	Refresh(ctx context.Context, analyticsID string) (*dto.AnalyticsSnapshotDTO, error)
}

type AnalyticsFlowImpl struct {
	blinkRepo     repository.BlinkRepository
	mailRepo      repository.MailRepository
	analyticsRepo repository.AnalyticsRepository
	logger        zerolog.Logger
}

func NewAnalyticsFlow(
	blinkRepo repository.BlinkRepository,
	mailRepo repository.MailRepository,
	analyticsRepo repository.AnalyticsRepository,
	logger zerolog.Logger,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		blinkRepo:     blinkRepo,
		mailRepo:      mailRepo,
		analyticsRepo: analyticsRepo,
		logger:        logger,
	}
}

// RecordVisit counts a dashboard visit and returns the refreshed snapshot.
// A missing aggregate row is created seeded with a single visit: the call
// that creates the row is itself the first visit.
func (f *AnalyticsFlowImpl) RecordVisit(ctx context.Context, analyticsID string, metadata *ClientMetadata) (*dto.AnalyticsSnapshotDTO, error) {
	blink, err := f.lookupByAnalyticsID(ctx, analyticsID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	affected, err := f.analyticsRepo.IncrementVisit(ctx, blink.ID, now)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_VISIT_FAILED", "Failed to record visit", err)
	}
	if affected == 0 {
		created, err := f.createRow(ctx, blink.ID, 1, now)
		if err != nil {
			return nil, err
		}
		// A concurrent visit created the row first. Ours still counts,
		// so increment the row that won.
		if !created {
			if _, err := f.analyticsRepo.IncrementVisit(ctx, blink.ID, now); err != nil {
				return nil, NewBusinessError("ANALYTICS_VISIT_FAILED", "Failed to record visit", err)
			}
		}
	}

	if metadata != nil && metadata.Country != "" {
		if err := f.analyticsRepo.BumpVisitorLocation(ctx, blink.ID, metadata.Country); err != nil {
			f.logger.Warn().Err(err).
				Str("analytics_id", analyticsID).
				Msg("failed to bump visitor location")
		}
	}

	return f.snapshot(ctx, analyticsID, blink)
}

// Refresh returns the snapshot without counting a visit. A missing
// aggregate row is created empty.
func (f *AnalyticsFlowImpl) Refresh(ctx context.Context, analyticsID string) (*dto.AnalyticsSnapshotDTO, error) {
	blink, err := f.lookupByAnalyticsID(ctx, analyticsID)
	if err != nil {
		return nil, err
	}

	row, err := f.analyticsRepo.ByBlinkID(ctx, blink.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_LOOKUP_FAILED", "Failed to lookup analytics", err)
	}
	if row == nil {
		if _, err := f.createRow(ctx, blink.ID, 0, time.Time{}); err != nil {
			return nil, err
		}
	}

	return f.snapshot(ctx, analyticsID, blink)
}

// createRow lazily creates the aggregate. It reports false on a duplicate
// key: a concurrent caller won the race and the row already exists.
func (f *AnalyticsFlowImpl) createRow(ctx context.Context, blinkID uint, visits int64, lastVisited time.Time) (bool, error) {
	row := &models.Analytics{
		BlinkID:          blinkID,
		TotalVisits:      visits,
		LastVisited:      lastVisited,
		VisitorLocations: models.LocationCounts{},
		MailTimestamps:   models.Timestamps{},
	}
	if err := f.analyticsRepo.Save(ctx, row); err != nil {
		if repository.IsDuplicateKey(err) {
			return false, nil
		}
		return false, NewBusinessError("ANALYTICS_CREATE_FAILED", "Failed to create analytics", err)
	}
	return true, nil
}

// snapshot recomputes the mail-derived counters from the mails table,
// writes them back as the new cache, and returns the assembled view.
func (f *AnalyticsFlowImpl) snapshot(ctx context.Context, analyticsID string, blink *models.Blink) (*dto.AnalyticsSnapshotDTO, error) {
	var totalMails int64
	var recent []*models.Mail
	err := repository.WithRetry(ctx, repository.DefaultRetryAttempts, repository.DefaultRetryBackoff, func() error {
		var countErr error
		totalMails, countErr = f.mailRepo.CountByBlink(ctx, blink.ID)
		if countErr != nil {
			return countErr
		}
		recent, countErr = f.mailRepo.RecentByBlink(ctx, blink.ID, recentTimestampsLimit)
		return countErr
	})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_RECOMPUTE_FAILED", "Failed to recompute mail counters", err)
	}

	earnings := float64(totalMails) * blink.AskingFee
	timestamps := make(models.Timestamps, 0, len(recent))
	for _, m := range recent {
		timestamps = append(timestamps, m.CreatedAt)
	}

	if err := f.analyticsRepo.RefreshMailCache(ctx, blink.ID, totalMails, earnings, timestamps); err != nil {
		f.logger.Warn().Err(err).
			Str("analytics_id", analyticsID).
			Msg("failed to refresh analytics cache")
	}

	row, err := f.analyticsRepo.ByBlinkID(ctx, blink.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_LOOKUP_FAILED", "Failed to lookup analytics", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrAnalyticsNotFound, analyticsID)
	}

	snapshot := ToAnalyticsSnapshotDTO(analyticsID, blink.Codename, *row, timestamps)
	return &snapshot, nil
}

func (f *AnalyticsFlowImpl) lookupByAnalyticsID(ctx context.Context, analyticsID string) (*models.Blink, error) {
	var blink *models.Blink
	err := repository.WithRetry(ctx, repository.DefaultRetryAttempts, repository.DefaultRetryBackoff, func() error {
		var lookupErr error
		blink, lookupErr = f.blinkRepo.ByAnalyticsID(ctx, analyticsID)
		return lookupErr
	})
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_LOOKUP_FAILED", "Failed to lookup analytics owner", err)
	}
	if blink == nil {
		return nil, fmt.Errorf("%w: %s", ErrAnalyticsNotFound, analyticsID)
	}
	return blink, nil
}
