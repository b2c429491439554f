package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmailer/xmailer/models"
)

func newTestAnalyticsFlow(blink *models.Blink) (AnalyticsFlow, *fakeBlinkRepo, *fakeMailRepo, *fakeAnalyticsRepo) {
	blinkRepo := newFakeBlinkRepo(blink)
	mailRepo := &fakeMailRepo{}
	analyticsRepo := newFakeAnalyticsRepo()
	flow := NewAnalyticsFlow(blinkRepo, mailRepo, analyticsRepo, zerolog.Nop())
	return flow, blinkRepo, mailRepo, analyticsRepo
}

func seedMail(t *testing.T, mailRepo *fakeMailRepo, blinkID uint, createdAt time.Time) {
	t.Helper()
	err := mailRepo.Save(context.Background(), &models.Mail{
		BlinkID:     blinkID,
		SenderEmail: "hal@example.com",
		SenderName:  "hal",
		MessageBody: "hello",
		CreatedAt:   createdAt,
	})
	require.NoError(t, err)
}

func TestRecordVisit(t *testing.T) {
	t.Run("FirstVisitCreatesRow", func(t *testing.T) {
		flow, _, _, analyticsRepo := newTestAnalyticsFlow(testBlink(0.5))

		snap, err := flow.RecordVisit(context.Background(), "analytics-slug", nil)
		require.NoError(t, err)

		assert.Equal(t, "analytics-slug", snap.AnalyticsID)
		assert.Equal(t, "satoshi", snap.BlinkCreator)
		assert.Equal(t, int64(1), snap.TotalVisits)
		assert.Equal(t, int64(0), snap.TotalMails)
		require.NotNil(t, snap.LastVisited)
		require.Len(t, analyticsRepo.rows, 1)
	})

	t.Run("ConcurrentFirstVisitsBothCount", func(t *testing.T) {
		flow, _, _, analyticsRepo := newTestAnalyticsFlow(testBlink(0.5))
		analyticsRepo.loseCreateRace = true

		snap, err := flow.RecordVisit(context.Background(), "analytics-slug", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(2), snap.TotalVisits)
	})

	t.Run("SubsequentVisitsIncrement", func(t *testing.T) {
		flow, _, _, _ := newTestAnalyticsFlow(testBlink(0.5))

		_, err := flow.RecordVisit(context.Background(), "analytics-slug", nil)
		require.NoError(t, err)
		_, err = flow.RecordVisit(context.Background(), "analytics-slug", nil)
		require.NoError(t, err)
		snap, err := flow.RecordVisit(context.Background(), "analytics-slug", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(3), snap.TotalVisits)
	})

	t.Run("CountsVisitorLocation", func(t *testing.T) {
		flow, _, _, _ := newTestAnalyticsFlow(testBlink(0.5))

		metadata := &ClientMetadata{Country: "DE"}
		_, err := flow.RecordVisit(context.Background(), "analytics-slug", metadata)
		require.NoError(t, err)
		snap, err := flow.RecordVisit(context.Background(), "analytics-slug", metadata)
		require.NoError(t, err)

		assert.Equal(t, int64(2), snap.VisitorLocations["DE"])
	})

	t.Run("UnknownAnalyticsID", func(t *testing.T) {
		flow, _, _, _ := newTestAnalyticsFlow(testBlink(0.5))

		_, err := flow.RecordVisit(context.Background(), "missing", nil)
		assert.True(t, IsAnalyticsNotFound(err))
	})
}

func TestRefresh(t *testing.T) {
	t.Run("MissingRowCreatedEmpty", func(t *testing.T) {
		flow, _, _, analyticsRepo := newTestAnalyticsFlow(testBlink(0.5))

		snap, err := flow.Refresh(context.Background(), "analytics-slug")
		require.NoError(t, err)

		assert.Equal(t, int64(0), snap.TotalVisits)
		assert.Equal(t, int64(0), snap.TotalMails)
		assert.Nil(t, snap.LastVisited)
		require.Len(t, analyticsRepo.rows, 1)
	})

	t.Run("NeverCountsAVisit", func(t *testing.T) {
		flow, _, _, _ := newTestAnalyticsFlow(testBlink(0.5))

		for i := 0; i < 3; i++ {
			snap, err := flow.Refresh(context.Background(), "analytics-slug")
			require.NoError(t, err)
			assert.Equal(t, int64(0), snap.TotalVisits)
		}
	})

	t.Run("RecomputesMailCountersFromMails", func(t *testing.T) {
		blink := testBlink(0.5)
		flow, _, mailRepo, analyticsRepo := newTestAnalyticsFlow(blink)

		// Seed a stale aggregate row
		require.NoError(t, analyticsRepo.Save(context.Background(), &models.Analytics{
			BlinkID:    1,
			TotalMails: 99,
			Earnings:   123.0,
		}))

		now := time.Now().UTC()
		for i := 0; i < 3; i++ {
			seedMail(t, mailRepo, 1, now.Add(-time.Duration(i)*time.Hour))
		}

		snap, err := flow.Refresh(context.Background(), "analytics-slug")
		require.NoError(t, err)

		assert.Equal(t, int64(3), snap.TotalMails)
		assert.InDelta(t, 1.5, snap.Earnings, 1e-9)
		assert.Len(t, snap.RecentMailTimestamps, 3)
	})

	t.Run("KeepsFiveNewestTimestamps", func(t *testing.T) {
		flow, _, mailRepo, _ := newTestAnalyticsFlow(testBlink(0.5))

		now := time.Now().UTC().Truncate(time.Second)
		for i := 0; i < 8; i++ {
			seedMail(t, mailRepo, 1, now.Add(-time.Duration(i)*time.Hour))
		}

		snap, err := flow.Refresh(context.Background(), "analytics-slug")
		require.NoError(t, err)

		assert.Equal(t, int64(8), snap.TotalMails)
		require.Len(t, snap.RecentMailTimestamps, 5)
		assert.Equal(t, now.Format(time.RFC3339), snap.RecentMailTimestamps[0])
		assert.Equal(t, now.Add(-4*time.Hour).Format(time.RFC3339), snap.RecentMailTimestamps[4])
	})

	t.Run("CacheWriteFailureIsNonFatal", func(t *testing.T) {
		flow, _, mailRepo, analyticsRepo := newTestAnalyticsFlow(testBlink(0.5))
		analyticsRepo.refreshErr = errors.New("write timeout")

		seedMail(t, mailRepo, 1, time.Now().UTC())

		snap, err := flow.Refresh(context.Background(), "analytics-slug")
		require.NoError(t, err)
		assert.Len(t, snap.RecentMailTimestamps, 1)
	})

	t.Run("UnknownAnalyticsID", func(t *testing.T) {
		flow, _, _, _ := newTestAnalyticsFlow(testBlink(0.5))

		_, err := flow.Refresh(context.Background(), "missing")
		assert.True(t, IsAnalyticsNotFound(err))
	})
}

func TestVisitAndMailInterplay(t *testing.T) {
	blink := testBlink(2)
	blinkRepo := newFakeBlinkRepo(blink)
	mailRepo := &fakeMailRepo{}
	analyticsRepo := newFakeAnalyticsRepo()

	analyticsFlow := NewAnalyticsFlow(blinkRepo, mailRepo, analyticsRepo, zerolog.Nop())
	actionFlow := NewActionFlow(blinkRepo, mailRepo, analyticsRepo, &fakeLedger{}, &fakeNotifier{}, nil, testBaseURL, zerolog.Nop())

	_, err := analyticsFlow.RecordVisit(context.Background(), "analytics-slug", nil)
	require.NoError(t, err)

	_, err = actionFlow.Finalize(context.Background(), "blink-slug", validParams())
	require.NoError(t, err)
	_, err = actionFlow.Finalize(context.Background(), "blink-slug", validParams())
	require.NoError(t, err)

	snap, err := analyticsFlow.RecordVisit(context.Background(), "analytics-slug", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), snap.TotalVisits)
	assert.Equal(t, int64(2), snap.TotalMails)
	assert.InDelta(t, 4.0, snap.Earnings, 1e-9)
	assert.Len(t, snap.RecentMailTimestamps, 2)
}
